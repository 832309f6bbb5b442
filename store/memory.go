package store

import (
	"sync"

	"github.com/unkn0wn-root/rescache/resource"
)

// Memory is the default in-process store. It keeps items and list results in
// plain maps with no eviction, which suits short-lived clients and tests.
// Use one of the bounded backends for long-running processes.
type Memory struct {
	mu    sync.RWMutex
	items map[string]map[string]resource.Item
	lists map[string]map[string]resource.ListResult
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty unbounded store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]map[string]resource.Item),
		lists: make(map[string]map[string]resource.ListResult),
	}
}

func (m *Memory) Item(res, id string) (resource.Item, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[res][id]
	if !ok {
		return nil, false, nil
	}
	return it.Clone(), true, nil
}

func (m *Memory) SetItem(res, id string, it resource.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID, ok := m.items[res]
	if !ok {
		byID = make(map[string]resource.Item)
		m.items[res] = byID
	}
	byID[id] = it.Clone()
	return nil
}

func (m *Memory) DeleteItem(res, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items[res], id)
	return nil
}

func (m *Memory) List(res, key string) (resource.ListResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lr, ok := m.lists[res][key]
	if !ok {
		return resource.ListResult{}, false, nil
	}
	return lr.Clone(), true, nil
}

func (m *Memory) SetList(res, key string, lr resource.ListResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKey, ok := m.lists[res]
	if !ok {
		byKey = make(map[string]resource.ListResult)
		m.lists[res] = byKey
	}
	byKey[key] = lr.Clone()
	return nil
}

func (m *Memory) Reset(resources ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(resources) == 0 {
		m.items = make(map[string]map[string]resource.Item)
		m.lists = make(map[string]map[string]resource.ListResult)
		return nil
	}
	for _, res := range resources {
		delete(m.items, res)
		delete(m.lists, res)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
