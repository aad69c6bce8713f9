package board

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sarahdemo/config"
)

// fakeTrello stores cards per list and serves the endpoints Trello uses.
type fakeTrello struct {
	mu        sync.Mutex
	nextID    int
	lists     []trelloList
	cards     map[string][]trelloCard // list id -> cards
	descs     map[string]string       // card name -> desc
	failCards map[string]bool         // card id -> delete fails
	calls     int
}

func newFakeTrello() *fakeTrello {
	return &fakeTrello{
		lists: []trelloList{
			{ID: "L-todo", Name: "To Do"},
			{ID: "L-doing", Name: "In Progress"},
			{ID: "L-review", Name: "Test"},
			{ID: "L-done", Name: "Done"},
		},
		cards:     make(map[string][]trelloCard),
		descs:     make(map[string]string),
		failCards: make(map[string]bool),
	}
}

func (f *fakeTrello) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls++
			q := r.URL.Query()
			if q.Get("key") != "trello-key" || q.Get("token") != "trello-token" {
				http.Error(w, "invalid key", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /1/cards", auth(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.nextID++
		card := trelloCard{ID: "c" + strconv.Itoa(f.nextID), Name: q.Get("name")}
		f.cards[q.Get("idList")] = append(f.cards[q.Get("idList")], card)
		f.descs[card.Name] = q.Get("desc")
		writeJSON(w, card)
	}))
	mux.HandleFunc("DELETE /1/cards/{id}", auth(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if f.failCards[id] {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		for list, cards := range f.cards {
			kept := cards[:0]
			for _, c := range cards {
				if c.ID != id {
					kept = append(kept, c)
				}
			}
			f.cards[list] = kept
		}
		writeJSON(w, map[string]any{})
	}))
	mux.HandleFunc("GET /1/lists/{id}/cards", auth(func(w http.ResponseWriter, r *http.Request) {
		cards := append([]trelloCard{}, f.cards[r.PathValue("id")]...)
		writeJSON(w, cards)
	}))
	mux.HandleFunc("GET /1/boards/{id}/lists", auth(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "6NTDvRPC" {
			t.Errorf("unexpected board id %s", r.PathValue("id"))
		}
		writeJSON(w, f.lists)
	}))
	return mux
}

func newTestTrello(t *testing.T, f *fakeTrello, mutate func(*config.TrelloConfig), opts ...TrelloOption) *Trello {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Trello
	cfg.APIURL = srv.URL + "/1"
	cfg.APIKey = "trello-key"
	cfg.Token = "trello-token"
	cfg.ListID = "L-default"
	cfg.Lists = map[string]string{
		"To Do":       "L-todo",
		"In Progress": "L-doing",
		"Review":      "L-review",
		"Done":        "L-done",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewTrello(cfg, config.Duration{}, zap.NewNop(), opts...)
}

func TestTrelloListMapping(t *testing.T) {
	f := newFakeTrello()
	tr := newTestTrello(t, f, nil)
	ctx := context.Background()

	for _, item := range []Item{
		{Name: "Kickoff", List: "In Progress"},
		{Name: "QA", List: "Review"},
		{Name: "Someday", List: "Icebox"},
		{Name: "Plain", Description: "no list given"},
	} {
		_, err := tr.CreateItem(ctx, item)
		require.NoError(t, err)
	}

	assert.Equal(t, "Kickoff", f.cards["L-doing"][0].Name)
	assert.Equal(t, "QA", f.cards["L-review"][0].Name)
	assert.Equal(t, "Someday", f.cards["L-todo"][0].Name, "unknown list falls back to To Do")
	assert.Equal(t, "Plain", f.cards["L-default"][0].Name, "unnamed list goes to the default list")
	assert.Equal(t, "no list given", f.descs["Plain"])
}

func TestTrelloUnnamedListWithoutDefault(t *testing.T) {
	f := newFakeTrello()
	tr := newTestTrello(t, f, func(c *config.TrelloConfig) { c.ListID = "" })

	_, err := tr.CreateItem(context.Background(), Item{Name: "Plain"})
	require.NoError(t, err)
	assert.Len(t, f.cards["L-todo"], 1)
}

func TestTrelloClearListScope(t *testing.T) {
	f := newFakeTrello()
	f.cards["L-default"] = []trelloCard{{ID: "x1", Name: "old"}}
	f.cards["L-done"] = []trelloCard{{ID: "x2", Name: "other list"}}
	tr := newTestTrello(t, f, nil)
	ctx := context.Background()

	n, err := tr.ClearBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.cards["L-done"], 1, "list scope leaves other lists alone")

	_, err = tr.CreateItem(ctx, Item{Name: "fresh"})
	require.NoError(t, err)

	names, err := tr.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, names)
}

func TestTrelloClearBoardScope(t *testing.T) {
	f := newFakeTrello()
	f.cards["L-todo"] = []trelloCard{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}}
	f.cards["L-done"] = []trelloCard{{ID: "c", Name: "c"}}
	f.failCards["b"] = true
	tr := newTestTrello(t, f, nil, WithScope(ScopeBoard))
	ctx := context.Background()

	n, err := tr.ClearBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "a failed delete is skipped, not fatal")

	names, err := tr.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestTrelloClearTwiceReturnsZero(t *testing.T) {
	tr := newTestTrello(t, newFakeTrello(), nil, WithScope(ScopeBoard))
	for range 2 {
		n, err := tr.ClearBoard(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestTrelloUnconfiguredIsNoop(t *testing.T) {
	f := newFakeTrello()
	tr := newTestTrello(t, f, func(c *config.TrelloConfig) { c.Token = "" })
	ctx := context.Background()

	id, err := tr.CreateItem(ctx, Item{Name: "x"})
	assert.NoError(t, err)
	assert.Empty(t, id)

	n, err := tr.ClearBoard(ctx)
	assert.NoError(t, err)
	assert.Zero(t, n)

	assert.Zero(t, f.calls)
}

func TestTrelloCreateContainerReturnsBoard(t *testing.T) {
	f := newFakeTrello()
	tr := newTestTrello(t, f, nil)

	id, err := tr.CreateContainer(context.Background(), "Sprint")
	require.NoError(t, err)
	assert.Equal(t, "6NTDvRPC", id)
	assert.Zero(t, f.calls)
}

func TestTrelloUpstreamError(t *testing.T) {
	f := newFakeTrello()
	tr := newTestTrello(t, f, func(c *config.TrelloConfig) { c.APIKey = "wrong" })

	_, err := tr.CreateItem(context.Background(), Item{Name: "x"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestMemoryAdapter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.CreateItem(ctx, Item{Name: "a"})
	require.NoError(t, err)
	n, err := m.ClearBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = m.CreateItem(ctx, Item{Name: "x"})
	require.NoError(t, err)
	names, err := m.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)

	m.FailItem("bad", ErrUpstream)
	_, err = m.CreateItem(ctx, Item{Name: "bad"})
	assert.ErrorIs(t, err, ErrUpstream)

	id, err := m.CreateContainer(ctx, "Pipeline")
	require.NoError(t, err)
	assert.Equal(t, "board-1", id)
	assert.Equal(t, []string{"Pipeline"}, m.Containers())
}
