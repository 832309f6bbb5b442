// Package ristretto backs the cache with one admission-controlled ristretto
// instance per resource. Under memory pressure ristretto may refuse a write;
// that surfaces as store.ErrRejected and the engine carries on without the
// cache entry.
//
// Every write waits for the admission buffers to drain so a read issued
// right after a write observes it. Rollback depends on that: an optimistic
// entry that landed after its own removal would never be cleaned up.
package ristretto

import (
	"errors"
	"sync"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/store"
)

type Config struct {
	// NumCounters sizes the admission frequency sketch per resource.
	NumCounters int64
	// MaxCost caps entries per resource (each entry costs 1).
	MaxCost int64
	// BufferItems sizes the Set buffer per resource.
	BufferItems int64
}

type Store struct {
	cfg Config

	mu     sync.Mutex
	caches map[string]*rc.Cache
	closed bool
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	return &Store{
		cfg:    cfg,
		caches: make(map[string]*rc.Cache),
	}, nil
}

func (s *Store) cache(res string) (*rc.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("ristretto: store closed")
	}
	if c, ok := s.caches[res]; ok {
		return c, nil
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: s.cfg.NumCounters,
		MaxCost:     s.cfg.MaxCost,
		BufferItems: s.cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	s.caches[res] = c
	return c, nil
}

func itemKey(id string) string  { return "item:" + id }
func listKey(key string) string { return "list:" + key }

func (s *Store) Item(res, id string) (resource.Item, bool, error) {
	c, err := s.cache(res)
	if err != nil {
		return nil, false, err
	}
	v, ok := c.Get(itemKey(id))
	if !ok {
		return nil, false, nil
	}
	it, ok := v.(resource.Item)
	if !ok {
		// self-heal: drop unexpected entry shape
		c.Del(itemKey(id))
		return nil, false, nil
	}
	return it.Clone(), true, nil
}

func (s *Store) SetItem(res, id string, it resource.Item) error {
	c, err := s.cache(res)
	if err != nil {
		return err
	}
	if !c.Set(itemKey(id), it.Clone(), 1) {
		return store.ErrRejected
	}
	c.Wait()
	return nil
}

func (s *Store) DeleteItem(res, id string) error {
	c, err := s.cache(res)
	if err != nil {
		return err
	}
	c.Del(itemKey(id))
	c.Wait()
	return nil
}

func (s *Store) List(res, key string) (resource.ListResult, bool, error) {
	c, err := s.cache(res)
	if err != nil {
		return resource.ListResult{}, false, err
	}
	v, ok := c.Get(listKey(key))
	if !ok {
		return resource.ListResult{}, false, nil
	}
	lr, ok := v.(resource.ListResult)
	if !ok {
		c.Del(listKey(key))
		return resource.ListResult{}, false, nil
	}
	return lr.Clone(), true, nil
}

func (s *Store) SetList(res, key string, lr resource.ListResult) error {
	c, err := s.cache(res)
	if err != nil {
		return err
	}
	if !c.Set(listKey(key), lr.Clone(), 1) {
		return store.ErrRejected
	}
	c.Wait()
	return nil
}

func (s *Store) Reset(resources ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(resources) == 0 {
		for _, c := range s.caches {
			c.Clear()
		}
		return nil
	}
	for _, res := range resources {
		if c, ok := s.caches[res]; ok {
			c.Clear()
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, c := range s.caches {
		c.Wait()
		c.Close()
	}
	s.caches = nil
	return nil
}
