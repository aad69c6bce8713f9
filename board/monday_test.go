package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sarahdemo/config"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// fakeMonday is a minimal stateful stand-in for the Monday GraphQL API.
type fakeMonday struct {
	mu        sync.Mutex
	nextID    int
	items     map[string][]mondayItem // board id -> items
	auth      []string
	requests  []graphQLRequest
	failOps   map[string]bool
	gqlErrors bool
}

func newFakeMonday() *fakeMonday {
	return &fakeMonday{items: make(map[string][]mondayItem), failOps: make(map[string]bool)}
}

func (f *fakeMonday) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.requests = append(f.requests, req)

	if f.gqlErrors {
		writeJSON(w, map[string]any{"errors": []map[string]string{{"message": "Not Authenticated"}}})
		return
	}

	str := func(key string) string {
		s, _ := req.Variables[key].(string)
		return s
	}

	switch {
	case strings.Contains(req.Query, "create_board"):
		f.nextID++
		id := "b" + strconv.Itoa(f.nextID)
		f.items[id] = nil
		writeJSON(w, map[string]any{"data": map[string]any{"create_board": map[string]string{"id": id}}})
	case strings.Contains(req.Query, "create_item"):
		if f.failOps["create_item"] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.nextID++
		item := mondayItem{ID: strconv.Itoa(f.nextID), Name: str("name")}
		f.items[str("board")] = append(f.items[str("board")], item)
		writeJSON(w, map[string]any{"data": map[string]any{"create_item": item}})
	case strings.Contains(req.Query, "delete_item"):
		if f.failOps["delete_item"] {
			writeJSON(w, map[string]any{"errors": []map[string]string{{"message": "boom"}}})
			return
		}
		id := str("id")
		for board, items := range f.items {
			kept := items[:0]
			for _, it := range items {
				if it.ID != id {
					kept = append(kept, it)
				}
			}
			f.items[board] = kept
		}
		writeJSON(w, map[string]any{"data": map[string]any{"delete_item": map[string]string{"id": id}}})
	case strings.Contains(req.Query, "boards("):
		ids, _ := req.Variables["board"].([]any)
		var boards []any
		for _, raw := range ids {
			id, _ := raw.(string)
			items := append([]mondayItem{}, f.items[id]...)
			boards = append(boards, map[string]any{"items_page": map[string]any{"items": items}})
		}
		writeJSON(w, map[string]any{"data": map[string]any{"boards": boards}})
	default:
		http.Error(w, "unknown query", http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestMonday(t *testing.T, f *fakeMonday, mutate func(*config.MondayConfig), opts ...MondayOption) *Monday {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Monday
	cfg.APIURL = srv.URL
	cfg.APIKey = "configured-key"
	cfg.BoardID = "42"
	if mutate != nil {
		mutate(&cfg)
	}
	return NewMonday(cfg, config.Duration{}, zap.NewNop(), opts...)
}

func TestMondayClearThenCreate(t *testing.T) {
	f := newFakeMonday()
	f.items["42"] = []mondayItem{{ID: "100", Name: "Old lead"}, {ID: "101", Name: "Older lead"}}
	m := newTestMonday(t, f, nil)
	ctx := context.Background()

	n, err := m.ClearBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = m.CreateItem(ctx, Item{Name: "Follow up with Enterprise Lead"})
	require.NoError(t, err)

	names, err := m.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Follow up with Enterprise Lead"}, names)
}

func TestMondayClearEmptyBoardTwice(t *testing.T) {
	m := newTestMonday(t, newFakeMonday(), nil)

	for range 2 {
		n, err := m.ClearBoard(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestMondayClearKeepsGoingAfterFailedDelete(t *testing.T) {
	f := newFakeMonday()
	f.items["42"] = []mondayItem{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	f.failOps["delete_item"] = true
	m := newTestMonday(t, f, nil)

	n, err := m.ClearBoard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	// both deletes were attempted
	deletes := 0
	for _, req := range f.requests {
		if strings.Contains(req.Query, "delete_item") {
			deletes++
		}
	}
	assert.Equal(t, 2, deletes)
}

func TestMondayCreateContainerRetargetsItems(t *testing.T) {
	f := newFakeMonday()
	m := newTestMonday(t, f, nil)
	ctx := context.Background()

	id, err := m.CreateContainer(ctx, "Lead Pipeline")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, m.BoardID())

	_, err = m.CreateItem(ctx, Item{Name: "New Lead", Status: "Working on it"})
	require.NoError(t, err)

	assert.Len(t, f.items[id], 1)
	assert.Empty(t, f.items["42"])

	// names travel as variables, never inside the query text
	for _, req := range f.requests {
		assert.NotContains(t, req.Query, "Lead Pipeline")
		assert.NotContains(t, req.Query, "New Lead")
	}
}

func TestMondayQuotesInNamesAreSafe(t *testing.T) {
	f := newFakeMonday()
	m := newTestMonday(t, f, nil)

	name := `Call "Acme" back } mutation { delete_board`
	_, err := m.CreateItem(context.Background(), Item{Name: name})
	require.NoError(t, err)
	require.Len(t, f.items["42"], 1)
	assert.Equal(t, name, f.items["42"][0].Name)
}

func TestMondayStatusColumn(t *testing.T) {
	f := newFakeMonday()
	m := newTestMonday(t, f, func(c *config.MondayConfig) { c.StatusColumn = "status" })

	_, err := m.CreateItem(context.Background(), Item{Name: "Qualify", Status: "Stuck"})
	require.NoError(t, err)

	req := f.requests[len(f.requests)-1]
	assert.Contains(t, req.Query, "column_values")
	assert.JSONEq(t, `{"status":{"label":"Stuck"}}`, req.Variables["values"].(string))
}

func TestMondayTokenOverridesAPIKey(t *testing.T) {
	f := newFakeMonday()
	m := newTestMonday(t, f, nil, WithToken("visitor-oauth-token"))

	_, err := m.CreateItem(context.Background(), Item{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"visitor-oauth-token"}, f.auth)
}

func TestMondayUnconfiguredIsNoop(t *testing.T) {
	f := newFakeMonday()
	m := newTestMonday(t, f, func(c *config.MondayConfig) { c.APIKey = "" })
	ctx := context.Background()

	assert.False(t, m.Configured())

	id, err := m.CreateItem(ctx, Item{Name: "x"})
	assert.NoError(t, err)
	assert.Empty(t, id)

	boardID, err := m.CreateContainer(ctx, "Pipeline")
	assert.NoError(t, err)
	assert.Empty(t, boardID)

	n, err := m.ClearBoard(ctx)
	assert.NoError(t, err)
	assert.Zero(t, n)

	names, err := m.ListItems(ctx)
	assert.NoError(t, err)
	assert.Empty(t, names)

	assert.Empty(t, f.requests, "no request may reach the API without credentials")
}

func TestMondayUpstreamErrors(t *testing.T) {
	f := newFakeMonday()
	f.gqlErrors = true
	m := newTestMonday(t, f, nil)

	_, err := m.CreateItem(context.Background(), Item{Name: "x"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "Not Authenticated")

	f2 := newFakeMonday()
	f2.failOps["create_item"] = true
	m2 := newTestMonday(t, f2, nil)
	_, err = m2.CreateItem(context.Background(), Item{Name: "x"})
	assert.ErrorIs(t, err, ErrUpstream)
}
