package board

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"sarahdemo/config"
)

// ClearScope selects which cards Trello.ClearBoard and Trello.ListItems see.
type ClearScope int

const (
	// ScopeList covers the default list only.
	ScopeList ClearScope = iota
	// ScopeBoard covers every list on the board.
	ScopeBoard
)

// fallbackList receives cards whose list name is unknown.
const fallbackList = "To Do"

type trelloCard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Trello drives a fixed Trello board through the REST API.
type Trello struct {
	cfg    config.TrelloConfig
	scope  ClearScope
	client *http.Client
	logger *zap.Logger
}

type TrelloOption func(*Trello)

// WithTrelloHTTPClient replaces the HTTP client.
func WithTrelloHTTPClient(client *http.Client) TrelloOption {
	return func(t *Trello) {
		if client != nil {
			t.client = client
		}
	}
}

// WithScope sets the clear/list scope. The default is ScopeList.
func WithScope(scope ClearScope) TrelloOption {
	return func(t *Trello) {
		t.scope = scope
	}
}

func NewTrello(cfg config.TrelloConfig, timeout config.Duration, logger *zap.Logger, opts ...TrelloOption) *Trello {
	t := &Trello{
		cfg:    cfg,
		logger: logger.With(zap.String("board", "trello")),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.client = newHTTPClient(t.client, timeout.Duration)
	return t
}

func (t *Trello) Name() string { return "trello" }

func (t *Trello) Configured() bool {
	return t.cfg.APIKey != "" && t.cfg.Token != ""
}

// CreateContainer is a no-op: Trello workflows are cards on a fixed board.
func (t *Trello) CreateContainer(_ context.Context, name string) (string, error) {
	t.logger.Debug("using fixed board for workflow", zap.String("workflow", name), zap.String("board_id", t.cfg.BoardID))
	return t.cfg.BoardID, nil
}

// listID resolves the target list. A named list maps through the configured
// lists with unknown names falling back to "To Do"; an unnamed item goes to
// the default list.
func (t *Trello) listID(name string) string {
	if name != "" {
		if id := t.cfg.Lists[name]; id != "" {
			return id
		}
		if id := t.cfg.Lists[fallbackList]; id != "" {
			return id
		}
		return t.cfg.ListID
	}
	if t.cfg.ListID != "" {
		return t.cfg.ListID
	}
	return t.cfg.Lists[fallbackList]
}

func (t *Trello) CreateItem(ctx context.Context, item Item) (string, error) {
	if !t.Configured() {
		t.logger.Info("trello credentials missing, skipping card", zap.String("card", item.Name))
		return "", nil
	}
	listID := t.listID(item.List)
	if listID == "" {
		t.logger.Info("no trello list configured, skipping card", zap.String("card", item.Name))
		return "", nil
	}

	params := url.Values{}
	params.Set("idList", listID)
	params.Set("name", item.Name)
	if item.Description != "" {
		params.Set("desc", item.Description)
	}

	var card trelloCard
	if err := doJSON(ctx, t.client, http.MethodPost, t.endpoint("cards", params), &card); err != nil {
		return "", fmt.Errorf("create card %q: %w", item.Name, err)
	}

	t.logger.Debug("card created", zap.String("card", item.Name), zap.String("list", item.List), zap.String("id", card.ID))
	return card.ID, nil
}

func (t *Trello) ClearBoard(ctx context.Context) (int, error) {
	if !t.Configured() {
		t.logger.Info("trello credentials missing, skipping clear")
		return 0, nil
	}

	cards, err := t.cards(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear board: %w", err)
	}

	deleted := 0
	for _, card := range cards {
		path := "cards/" + url.PathEscape(card.ID)
		if err := doJSON(ctx, t.client, http.MethodDelete, t.endpoint(path, nil), nil); err != nil {
			t.logger.Warn("failed to delete card", zap.String("id", card.ID), zap.Error(err))
			continue
		}
		deleted++
	}

	t.logger.Info("board cleared", zap.Int("deleted", deleted), zap.Int("found", len(cards)))
	return deleted, nil
}

func (t *Trello) ListItems(ctx context.Context) ([]string, error) {
	if !t.Configured() {
		return []string{}, nil
	}

	cards, err := t.cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	names := make([]string, len(cards))
	for i, card := range cards {
		names[i] = card.Name
	}
	return names, nil
}

// cards returns the cards in scope.
func (t *Trello) cards(ctx context.Context) ([]trelloCard, error) {
	var listIDs []string
	switch t.scope {
	case ScopeBoard:
		if t.cfg.BoardID == "" {
			return nil, nil
		}
		var lists []trelloList
		path := "boards/" + url.PathEscape(t.cfg.BoardID) + "/lists"
		if err := doJSON(ctx, t.client, http.MethodGet, t.endpoint(path, nil), &lists); err != nil {
			return nil, err
		}
		for _, l := range lists {
			listIDs = append(listIDs, l.ID)
		}
	default:
		if id := t.listID(""); id != "" {
			listIDs = append(listIDs, id)
		}
	}

	var all []trelloCard
	for _, id := range listIDs {
		var cards []trelloCard
		path := "lists/" + url.PathEscape(id) + "/cards"
		if err := doJSON(ctx, t.client, http.MethodGet, t.endpoint(path, nil), &cards); err != nil {
			return nil, err
		}
		all = append(all, cards...)
	}
	return all, nil
}

// endpoint builds an API URL carrying the key and token query parameters.
func (t *Trello) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", t.cfg.APIKey)
	params.Set("token", t.cfg.Token)
	return strings.TrimRight(t.cfg.APIURL, "/") + "/" + path + "?" + params.Encode()
}
