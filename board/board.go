// Package board mutates the work-management boards the demo builds on.
//
// Adapters never fail a conversation: an adapter without credentials turns
// every operation into a logged no-op, and callers decide whether an
// upstream error is worth more than a log line.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUpstream wraps failures reported by a board API.
var ErrUpstream = errors.New("board API error")

// Item is a child entry created on a board: a Monday item or a Trello card.
type Item struct {
	Name        string
	Status      string
	List        string
	Description string
}

// Adapter is the set of board operations the dispatcher needs.
type Adapter interface {
	// Name identifies the provider in logs.
	Name() string
	// Configured reports whether credentials are present.
	Configured() bool
	// CreateContainer creates the board or group items are added to and
	// returns its id. Later CreateItem calls target it.
	CreateContainer(ctx context.Context, name string) (string, error)
	// CreateItem adds one child and returns its id.
	CreateItem(ctx context.Context, item Item) (string, error)
	// ClearBoard deletes every child in scope and returns how many were
	// deleted. It keeps going after individual failures.
	ClearBoard(ctx context.Context) (int, error)
	// ListItems returns the names of the children in scope.
	ListItems(ctx context.Context) ([]string, error)
}

const defaultTimeout = 30 * time.Second

func newHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doJSON sends a bodyless request and decodes the JSON response into out
// when out is non-nil. Non-2xx responses are ErrUpstream.
func doJSON(ctx context.Context, client *http.Client, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUpstream, method, req.URL.Path, resp.StatusCode, truncate(data, 200))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
