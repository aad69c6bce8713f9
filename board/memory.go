package board

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Memory is an in-process board for offline demos and tests.
type Memory struct {
	mu         sync.Mutex
	nextID     int
	items      []memoryItem
	containers []string
	failing    map[string]error
}

type memoryItem struct {
	id string
	Item
}

func NewMemory() *Memory {
	return &Memory{failing: make(map[string]error)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Configured() bool { return true }

// FailItem makes every later CreateItem for name return err.
func (m *Memory) FailItem(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[name] = err
}

func (m *Memory) CreateContainer(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.containers = append(m.containers, name)
	return fmt.Sprintf("board-%d", len(m.containers)), nil
}

func (m *Memory) CreateItem(ctx context.Context, item Item) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failing[item.Name]; ok {
		return "", err
	}
	m.nextID++
	id := strconv.Itoa(m.nextID)
	m.items = append(m.items, memoryItem{id: id, Item: item})
	return id, nil
}

func (m *Memory) ClearBoard(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.items)
	m.items = nil
	return n, nil
}

func (m *Memory) ListItems(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.items))
	for i, item := range m.items {
		names[i] = item.Name
	}
	return names, nil
}

// Items returns a copy of the stored items in creation order.
func (m *Memory) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]Item, len(m.items))
	for i, item := range m.items {
		items[i] = item.Item
	}
	return items
}

// Containers returns the names passed to CreateContainer.
func (m *Memory) Containers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.containers...)
}
