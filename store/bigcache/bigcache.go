// Package bigcache keeps cached entries serialized in per-resource BigCache
// instances, off the Go heap. Values pass through a codec and a small binary
// frame that tags item blobs apart from list blobs; anything that fails to
// decode is dropped and treated as a miss.
package bigcache

import (
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/rescache/codec"
	"github.com/unkn0wn-root/rescache/internal/util"
	"github.com/unkn0wn-root/rescache/internal/wire"
	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/store"
)

type Config struct {
	// Items serializes cached items. Nil means JSON.
	Items codec.Codec[resource.Item]
	// Lists serializes cached list results. Nil means JSON.
	Lists codec.Codec[resource.ListResult]

	// LifeWindow is how long entries live. 0 means 10 minutes.
	LifeWindow  time.Duration
	CleanWindow time.Duration

	MaxEntriesInWindow int
	MaxEntrySize       int
	// HardMaxCacheSizeMB limits memory per resource; 0 = unlimited.
	HardMaxCacheSizeMB int
}

type Store struct {
	items codec.Codec[resource.Item]
	lists codec.Codec[resource.ListResult]
	conf  bc.Config

	mu     sync.Mutex
	caches map[string]*bc.BigCache
	closed bool
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	life := cfg.LifeWindow
	if life == 0 {
		life = 10 * time.Minute
	}
	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}

	s := &Store{
		items:  cfg.Items,
		lists:  cfg.Lists,
		conf:   conf,
		caches: make(map[string]*bc.BigCache),
	}
	if s.items == nil {
		s.items = codec.JSON[resource.Item]{}
	}
	if s.lists == nil {
		s.lists = codec.JSON[resource.ListResult]{}
	}
	return s, nil
}

func (s *Store) cache(res string) (*bc.BigCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("bigcache: store closed")
	}
	if c, ok := s.caches[res]; ok {
		return c, nil
	}
	c, err := bc.NewBigCache(s.conf)
	if err != nil {
		return nil, err
	}
	s.caches[res] = c
	return c, nil
}

func itemKey(id string) string { return "item:" + id }

// listKey hashes the canonical query key; query keys are unbounded and
// BigCache copies keys into its index.
func listKey(key string) string { return util.ShortKey("list", key) }

func (s *Store) Item(res, id string) (resource.Item, bool, error) {
	c, err := s.cache(res)
	if err != nil {
		return nil, false, err
	}
	b, err := c.Get(itemKey(id))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	payload, err := wire.DecodeItem(b)
	if err != nil {
		// self-heal: drop the corrupt entry
		_ = c.Delete(itemKey(id))
		return nil, false, nil
	}
	it, err := s.items.Decode(payload)
	if err != nil {
		_ = c.Delete(itemKey(id))
		return nil, false, nil
	}
	return it, true, nil
}

func (s *Store) SetItem(res, id string, it resource.Item) error {
	c, err := s.cache(res)
	if err != nil {
		return err
	}
	payload, err := s.items.Encode(it)
	if err != nil {
		return err
	}
	return c.Set(itemKey(id), wire.EncodeItem(payload))
}

func (s *Store) DeleteItem(res, id string) error {
	c, err := s.cache(res)
	if err != nil {
		return err
	}
	err = c.Delete(itemKey(id))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (s *Store) List(res, key string) (resource.ListResult, bool, error) {
	c, err := s.cache(res)
	if err != nil {
		return resource.ListResult{}, false, err
	}
	b, err := c.Get(listKey(key))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return resource.ListResult{}, false, nil
	}
	if err != nil {
		return resource.ListResult{}, false, err
	}
	payload, err := wire.DecodeList(b)
	if err != nil {
		_ = c.Delete(listKey(key))
		return resource.ListResult{}, false, nil
	}
	lr, err := s.lists.Decode(payload)
	if err != nil {
		_ = c.Delete(listKey(key))
		return resource.ListResult{}, false, nil
	}
	return lr, true, nil
}

func (s *Store) SetList(res, key string, lr resource.ListResult) error {
	c, err := s.cache(res)
	if err != nil {
		return err
	}
	payload, err := s.lists.Encode(lr)
	if err != nil {
		return err
	}
	return c.Set(listKey(key), wire.EncodeList(payload))
}

func (s *Store) Reset(resources ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(resources) == 0 {
		for _, c := range s.caches {
			if err := c.Reset(); err != nil {
				return err
			}
		}
		return nil
	}
	for _, res := range resources {
		if c, ok := s.caches[res]; ok {
			if err := c.Reset(); err != nil {
				return err
			}
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

	var first error
	for _, c := range s.caches {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.caches = nil
	return first
}
