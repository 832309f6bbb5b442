// Package lru bounds the cache with per-resource LRU eviction. Items and
// list results live in separate caches so a burst of list queries cannot
// evict the item working set.
package lru

import (
	"errors"
	"sync"

	hlru "github.com/hashicorp/golang-lru/v2"

	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/store"
)

type Config struct {
	// ItemsPerResource caps cached items per resource. 0 means 1024.
	ItemsPerResource int
	// ListsPerResource caps cached list results per resource. 0 means 128.
	ListsPerResource int
}

type Store struct {
	itemCap int
	listCap int

	mu    sync.Mutex
	items map[string]*hlru.Cache[string, resource.Item]
	lists map[string]*hlru.Cache[string, resource.ListResult]
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.ItemsPerResource < 0 || cfg.ListsPerResource < 0 {
		return nil, errors.New("lru: capacities must be non-negative")
	}
	s := &Store{
		itemCap: cfg.ItemsPerResource,
		listCap: cfg.ListsPerResource,
		items:   make(map[string]*hlru.Cache[string, resource.Item]),
		lists:   make(map[string]*hlru.Cache[string, resource.ListResult]),
	}
	if s.itemCap == 0 {
		s.itemCap = 1024
	}
	if s.listCap == 0 {
		s.listCap = 128
	}
	return s, nil
}

func (s *Store) itemCache(res string) (*hlru.Cache[string, resource.Item], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.items[res]; ok {
		return c, nil
	}
	c, err := hlru.New[string, resource.Item](s.itemCap)
	if err != nil {
		return nil, err
	}
	s.items[res] = c
	return c, nil
}

func (s *Store) listCache(res string) (*hlru.Cache[string, resource.ListResult], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.lists[res]; ok {
		return c, nil
	}
	c, err := hlru.New[string, resource.ListResult](s.listCap)
	if err != nil {
		return nil, err
	}
	s.lists[res] = c
	return c, nil
}

func (s *Store) Item(res, id string) (resource.Item, bool, error) {
	c, err := s.itemCache(res)
	if err != nil {
		return nil, false, err
	}
	it, ok := c.Get(id)
	if !ok {
		return nil, false, nil
	}
	return it.Clone(), true, nil
}

func (s *Store) SetItem(res, id string, it resource.Item) error {
	c, err := s.itemCache(res)
	if err != nil {
		return err
	}
	c.Add(id, it.Clone())
	return nil
}

func (s *Store) DeleteItem(res, id string) error {
	c, err := s.itemCache(res)
	if err != nil {
		return err
	}
	c.Remove(id)
	return nil
}

func (s *Store) List(res, key string) (resource.ListResult, bool, error) {
	c, err := s.listCache(res)
	if err != nil {
		return resource.ListResult{}, false, err
	}
	lr, ok := c.Get(key)
	if !ok {
		return resource.ListResult{}, false, nil
	}
	return lr.Clone(), true, nil
}

func (s *Store) SetList(res, key string, lr resource.ListResult) error {
	c, err := s.listCache(res)
	if err != nil {
		return err
	}
	c.Add(key, lr.Clone())
	return nil
}

func (s *Store) Reset(resources ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(resources) == 0 {
		for _, c := range s.items {
			c.Purge()
		}
		for _, c := range s.lists {
			c.Purge()
		}
		return nil
	}
	for _, res := range resources {
		if c, ok := s.items[res]; ok {
			c.Purge()
		}
		if c, ok := s.lists[res]; ok {
			c.Purge()
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }
