package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	graphql "github.com/hasura/go-graphql-client"
	"go.uber.org/zap"

	"sarahdemo/config"
)

const (
	createBoardMutation = `mutation ($name: String!) {
  create_board(board_name: $name, board_kind: public) { id }
}`
	createItemMutation = `mutation ($board: ID!, $name: String!) {
  create_item(board_id: $board, item_name: $name) { id }
}`
	createItemWithStatusMutation = `mutation ($board: ID!, $name: String!, $values: JSON!) {
  create_item(board_id: $board, item_name: $name, column_values: $values, create_labels_if_missing: true) { id }
}`
	deleteItemMutation = `mutation ($id: ID!) {
  delete_item(item_id: $id) { id }
}`
	listItemsQuery = `query ($board: [ID!], $limit: Int!) {
  boards(ids: $board) { items_page(limit: $limit) { items { id name } } }
}`
)

type mondayItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Monday drives a Monday.com board through the GraphQL API.
type Monday struct {
	cfg    config.MondayConfig
	token  string
	client *http.Client
	gql    *graphql.Client
	logger *zap.Logger

	mu      sync.Mutex
	boardID string
}

type MondayOption func(*Monday)

// WithMondayHTTPClient replaces the HTTP client.
func WithMondayHTTPClient(client *http.Client) MondayOption {
	return func(m *Monday) {
		if client != nil {
			m.client = client
		}
	}
}

// WithToken authenticates with a per-visitor OAuth token instead of the
// configured API key. An empty token keeps the API key.
func WithToken(token string) MondayOption {
	return func(m *Monday) {
		if token != "" {
			m.token = token
		}
	}
}

// NewMonday creates a Monday adapter targeting the configured board.
func NewMonday(cfg config.MondayConfig, timeout config.Duration, logger *zap.Logger, opts ...MondayOption) *Monday {
	m := &Monday{
		cfg:     cfg,
		token:   cfg.APIKey,
		logger:  logger.With(zap.String("board", "monday")),
		boardID: cfg.BoardID,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.client = newHTTPClient(m.client, timeout.Duration)
	m.gql = graphql.NewClient(m.cfg.APIURL, m.client).
		WithRequestModifier(func(r *http.Request) {
			// Monday takes the bare token, without a Bearer prefix
			r.Header.Set("Authorization", m.token)
		})
	return m
}

func (m *Monday) Name() string { return "monday" }

func (m *Monday) Configured() bool { return m.token != "" }

// BoardID returns the board items are currently created on.
func (m *Monday) BoardID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boardID
}

func (m *Monday) setBoardID(id string) {
	m.mu.Lock()
	m.boardID = id
	m.mu.Unlock()
}

// CreateContainer creates a public board and makes it the target of
// subsequent CreateItem calls.
func (m *Monday) CreateContainer(ctx context.Context, name string) (string, error) {
	if !m.Configured() {
		m.logger.Info("monday credentials missing, skipping board creation", zap.String("name", name))
		return "", nil
	}

	var data struct {
		CreateBoard *struct {
			ID string `json:"id"`
		} `json:"create_board"`
	}
	if err := m.graphql(ctx, createBoardMutation, map[string]any{"name": name}, &data); err != nil {
		return "", fmt.Errorf("create board %q: %w", name, err)
	}
	if data.CreateBoard == nil || data.CreateBoard.ID == "" {
		return "", fmt.Errorf("create board %q: %w: no board id returned", name, ErrUpstream)
	}

	m.setBoardID(data.CreateBoard.ID)
	m.logger.Info("board created", zap.String("name", name), zap.String("board_id", data.CreateBoard.ID))
	return data.CreateBoard.ID, nil
}

func (m *Monday) CreateItem(ctx context.Context, item Item) (string, error) {
	boardID := m.BoardID()
	if !m.Configured() || boardID == "" {
		m.logger.Info("monday not configured, skipping item", zap.String("item", item.Name))
		return "", nil
	}

	query := createItemMutation
	vars := map[string]any{"board": boardID, "name": item.Name}
	if m.cfg.StatusColumn != "" && item.Status != "" {
		values, err := json.Marshal(map[string]any{
			m.cfg.StatusColumn: map[string]string{"label": item.Status},
		})
		if err != nil {
			return "", err
		}
		query = createItemWithStatusMutation
		vars["values"] = string(values)
	}

	var data struct {
		CreateItem *mondayItem `json:"create_item"`
	}
	if err := m.graphql(ctx, query, vars, &data); err != nil {
		return "", fmt.Errorf("create item %q: %w", item.Name, err)
	}
	if data.CreateItem == nil {
		return "", fmt.Errorf("create item %q: %w: no item returned", item.Name, ErrUpstream)
	}

	m.logger.Debug("item created", zap.String("item", item.Name), zap.String("id", data.CreateItem.ID))
	return data.CreateItem.ID, nil
}

func (m *Monday) ClearBoard(ctx context.Context) (int, error) {
	if !m.Configured() || m.BoardID() == "" {
		m.logger.Info("monday not configured, skipping clear")
		return 0, nil
	}

	items, err := m.items(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear board: %w", err)
	}

	deleted := 0
	for _, item := range items {
		if err := m.graphql(ctx, deleteItemMutation, map[string]any{"id": item.ID}, nil); err != nil {
			m.logger.Warn("failed to delete item", zap.String("id", item.ID), zap.Error(err))
			continue
		}
		deleted++
	}

	m.logger.Info("board cleared", zap.Int("deleted", deleted), zap.Int("found", len(items)))
	return deleted, nil
}

func (m *Monday) ListItems(ctx context.Context) ([]string, error) {
	if !m.Configured() || m.BoardID() == "" {
		return []string{}, nil
	}

	items, err := m.items(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names, nil
}

func (m *Monday) items(ctx context.Context) ([]mondayItem, error) {
	limit := m.cfg.PageLimit
	if limit <= 0 {
		limit = 50
	}

	var data struct {
		Boards []struct {
			ItemsPage struct {
				Items []mondayItem `json:"items"`
			} `json:"items_page"`
		} `json:"boards"`
	}
	vars := map[string]any{"board": []string{m.BoardID()}, "limit": limit}
	if err := m.graphql(ctx, listItemsQuery, vars, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, nil
	}
	return data.Boards[0].ItemsPage.Items, nil
}

func (m *Monday) graphql(ctx context.Context, query string, vars map[string]any, out any) error {
	raw, err := m.gql.ExecRaw(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrUpstream, err)
	}
	return nil
}
