// Package redis caches entries in Redis so several processes can share one
// cache. Entries are serialized through a codec and framed; serialization
// already severs aliasing, so nothing is cloned at the boundary. Corrupt
// entries are dropped on read and treated as misses.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/rescache/codec"
	"github.com/unkn0wn-root/rescache/internal/util"
	"github.com/unkn0wn-root/rescache/internal/wire"
	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

type Config struct {
	// Client is any go-redis client (single node, cluster, sentinel).
	// Required.
	Client goredis.UniversalClient
	// CloseClient releases the client on Close. Set true only if this
	// store exclusively owns it.
	CloseClient bool

	// Namespace prefixes every key so unrelated applications can share a
	// Redis instance. Empty means "rescache".
	Namespace string

	// TTL expires entries. 0 means no expiry.
	TTL time.Duration

	// OpTimeout bounds each Redis round trip. 0 means 5 seconds.
	OpTimeout time.Duration

	// Items serializes cached items. Nil means JSON.
	Items codec.Codec[resource.Item]
	// Lists serializes cached list results. Nil means JSON.
	Lists codec.Codec[resource.ListResult]
}

type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool
	ns          string
	ttl         time.Duration
	opTimeout   time.Duration
	items       codec.Codec[resource.Item]
	lists       codec.Codec[resource.ListResult]
}

var _ store.Store = (*Store)(nil)

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}

	s := &Store{
		rdb:         cfg.Client,
		closeClient: cfg.CloseClient,
		ns:          cfg.Namespace,
		ttl:         cfg.TTL,
		opTimeout:   cfg.OpTimeout,
		items:       cfg.Items,
		lists:       cfg.Lists,
	}
	if s.ns == "" {
		s.ns = "rescache"
	}
	if s.ttl < 0 {
		s.ttl = 0 // treat non-positive TTLs as "no expiry"
	}
	if s.opTimeout <= 0 {
		s.opTimeout = 5 * time.Second
	}
	if s.items == nil {
		s.items = codec.JSON[resource.Item]{}
	}
	if s.lists == nil {
		s.lists = codec.JSON[resource.ListResult]{}
	}
	return s, nil
}

func (s *Store) itemKey(res, id string) string {
	return s.ns + ":item:" + res + ":" + id
}

// listKey hashes the canonical query key; query keys are unbounded and
// namespaced Redis keys should stay short.
func (s *Store) listKey(res, key string) string {
	return s.ns + ":" + util.ShortKey("list:"+res, key)
}

func (s *Store) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

func (s *Store) Item(res, id string) (resource.Item, bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	key := s.itemKey(res, id)
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err
	}

	payload, err := wire.DecodeItem(b)
	if err != nil {
		// self-heal: drop the corrupt entry and report a miss
		_ = s.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	it, err := s.items.Decode(payload)
	if err != nil {
		_ = s.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	return it, true, nil
}

func (s *Store) SetItem(res, id string, it resource.Item) error {
	payload, err := s.items.Encode(it)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx()
	defer cancel()
	return s.rdb.Set(ctx, s.itemKey(res, id), wire.EncodeItem(payload), s.ttl).Err()
}

func (s *Store) DeleteItem(res, id string) error {
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.rdb.Del(ctx, s.itemKey(res, id)).Err()
}

func (s *Store) List(res, key string) (resource.ListResult, bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()

	k := s.listKey(res, key)
	b, err := s.rdb.Get(ctx, k).Bytes()
	if err == goredis.Nil {
		return resource.ListResult{}, false, nil
	}
	if err != nil {
		return resource.ListResult{}, false, err
	}

	payload, err := wire.DecodeList(b)
	if err != nil {
		_ = s.rdb.Del(ctx, k).Err()
		return resource.ListResult{}, false, nil
	}
	lr, err := s.lists.Decode(payload)
	if err != nil {
		_ = s.rdb.Del(ctx, k).Err()
		return resource.ListResult{}, false, nil
	}
	return lr, true, nil
}

func (s *Store) SetList(res, key string, lr resource.ListResult) error {
	payload, err := s.lists.Encode(lr)
	if err != nil {
		return err
	}

	ctx, cancel := s.opCtx()
	defer cancel()
	return s.rdb.Set(ctx, s.listKey(res, key), wire.EncodeList(payload), s.ttl).Err()
}

// Reset removes the given resources, or everything under the namespace when
// none are given. Uses SCAN, so it is safe on shared instances; large
// namespaces take multiple round trips.
func (s *Store) Reset(resources ...string) error {
	patterns := []string{s.ns + ":*"}
	if len(resources) > 0 {
		patterns = patterns[:0]
		for _, res := range resources {
			patterns = append(patterns,
				s.ns+":item:"+res+":*",
				s.ns+":list:"+res+":*")
		}
	}

	for _, pattern := range patterns {
		if err := s.deleteByPattern(pattern); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) deleteByPattern(pattern string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*s.opTimeout)
	defer cancel()

	iter := s.rdb.Scan(ctx, 0, pattern, 256).Iterator()
	batch := make([]string, 0, 256)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.rdb.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

// Close releases the underlying client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close() error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
