package rescache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/unkn0wn-root/rescache/push"
	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/store"
	"github.com/unkn0wn-root/rescache/transport"
)

type engine struct {
	tp    transport.Transport
	store store.Store
	bus   *Bus
	log   Logger
	pk    string
	scope string

	mu       sync.Mutex
	inflight map[string]*listFlight

	subMu  sync.Mutex
	subSeq int
	subs   map[string]map[int]func(resource.Change)

	stream *push.Stream
}

var _ Engine = (*engine)(nil)

// listFlight is one pending list call; followers block on done and read
// result/err afterwards.
type listFlight struct {
	done   chan struct{}
	result resource.ListResult
	err    error
}

func newEngine(ctx context.Context, opts Options) (*engine, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrConfig)
	}

	e := &engine{
		tp:       opts.Transport,
		store:    opts.Store,
		bus:      opts.Bus,
		scope:    opts.PushResource,
		inflight: make(map[string]*listFlight),
		subs:     make(map[string]map[int]func(resource.Change)),
	}

	// defaults
	e.log = coalesce[Logger](opts.Logger, NopLogger{})
	e.pk = coalesce[string](opts.PrimaryKey, "id")
	if e.store == nil {
		e.store = store.NewMemory()
	}
	if e.bus == nil {
		e.bus = NewBus()
	}

	if opts.Push != nil {
		stream, err := push.NewStreamWithContext(ctx, push.Config{
			Source:         opts.Push,
			Resource:       opts.PushResource,
			InitialBackoff: opts.ReconnectInitial,
			MaxBackoff:     opts.ReconnectMax,
			Clock:          opts.Clock,
			Handlers: push.Handlers{
				OnChange: e.applyRemote,
				OnError: func(err error) {
					e.log.Debug("push stream error", Fields{"err": err.Error()})
					e.bus.Emit(Event{Name: EventError, Resource: e.scope, Action: "push", Err: err})
				},
				OnState: func(st push.State) {
					e.log.Debug("push stream state", Fields{"state": st.String()})
				},
			},
		})
		if err != nil {
			return nil, err
		}
		e.stream = stream
	}
	return e, nil
}

// ==============================
// Reads
// ==============================

func (e *engine) List(ctx context.Context, res string, q resource.Query) (resource.ListResult, error) {
	key := res + "?" + q.Key()

	e.mu.Lock()
	if fl, ok := e.inflight[key]; ok {
		e.mu.Unlock()
		e.log.Debug("list joined in-flight call", Fields{"resource": res, "key": key})
		select {
		case <-fl.done:
			if fl.err != nil {
				return resource.ListResult{}, fl.err
			}
			return fl.result.Clone(), nil
		case <-ctx.Done():
			return resource.ListResult{}, ctx.Err()
		}
	}
	fl := &listFlight{done: make(chan struct{})}
	e.inflight[key] = fl
	e.mu.Unlock()

	e.bus.Emit(Event{Name: EventBeforeList, Resource: res, Query: &q})

	lr, err := e.tp.List(ctx, res, q)
	if err == nil {
		e.cacheList(res, q.Key(), lr)
	}

	// settle before emitting so a follower never re-joins a finished call
	e.mu.Lock()
	fl.result, fl.err = lr, err
	delete(e.inflight, key)
	e.mu.Unlock()
	close(fl.done)

	if err != nil {
		e.bus.Emit(Event{Name: EventError, Resource: res, Action: "list", Err: err})
		return resource.ListResult{}, err
	}
	e.bus.Emit(Event{Name: EventAfterList, Resource: res, Query: &q, Result: &lr})
	return lr, nil
}

func (e *engine) Get(ctx context.Context, res, id string) (resource.Item, error) {
	e.bus.Emit(Event{Name: EventBeforeGet, Resource: res, ID: id})

	it, ok, err := e.store.Item(res, id)
	if err != nil {
		e.log.Warn("store read failed", Fields{"resource": res, "id": id, "err": err.Error()})
		ok = false
	}
	if ok {
		e.bus.Emit(Event{Name: EventAfterGet, Resource: res, ID: id, Item: it})
		return it, nil
	}

	it, err = e.tp.Get(ctx, res, id)
	if err != nil {
		e.bus.Emit(Event{Name: EventError, Resource: res, Action: "get", ID: id, Err: err})
		return nil, err
	}
	e.cacheItem(res, it)
	e.bus.Emit(Event{Name: EventAfterGet, Resource: res, ID: id, Item: it})
	return it, nil
}

// ==============================
// Mutations
// ==============================

func (e *engine) Create(ctx context.Context, res string, data resource.Item, opts MutateOptions) (resource.Item, error) {
	e.bus.Emit(Event{Name: EventBeforeCreate, Resource: res, Item: data})

	if !opts.Optimistic {
		it, err := e.tp.Create(ctx, res, data)
		if err != nil {
			e.bus.Emit(Event{Name: EventError, Resource: res, Action: "create", Err: err})
			return nil, err
		}
		e.cacheItem(res, it)
		e.bus.Emit(Event{Name: EventItemCreated, Resource: res, ID: it.Key(e.pk), Item: it})
		return it, nil
	}

	tmp := resource.NewTempKey()
	draft := data.Clone()
	if draft == nil {
		draft = resource.Item{}
	}
	draft[e.pk] = tmp
	if err := e.store.SetItem(res, tmp, draft); err != nil {
		e.storeWarn("set item", res, tmp, err)
	}
	e.bus.Emit(Event{Name: EventItemCreated, Resource: res, ID: tmp, Item: draft, Optimistic: true})

	it, err := e.tp.Create(ctx, res, data)
	if err != nil {
		final := err
		if derr := e.store.DeleteItem(res, tmp); derr != nil {
			final = &RollbackError{Op: "create", Resource: res, ID: tmp, Cause: err, RestoreErr: derr}
		}
		e.bus.Emit(Event{Name: EventError, Resource: res, Action: "create", Err: final})
		return nil, final
	}

	if derr := e.store.DeleteItem(res, tmp); derr != nil {
		e.storeWarn("delete item", res, tmp, derr)
	}
	e.cacheItem(res, it)
	e.bus.Emit(Event{Name: EventItemCreated, Resource: res, ID: it.Key(e.pk), Item: it, Optimistic: false})
	return it, nil
}

func (e *engine) Update(ctx context.Context, res, id string, patch map[string]any, opts MutateOptions) (resource.Item, error) {
	e.bus.Emit(Event{Name: EventBeforeUpdate, Resource: res, ID: id, Item: resource.Item(patch)})

	if !opts.Optimistic {
		it, err := e.tp.Update(ctx, res, id, patch)
		if err != nil {
			e.bus.Emit(Event{Name: EventError, Resource: res, Action: "update", ID: id, Err: err})
			return nil, err
		}
		e.replaceItem(res, id, it)
		e.bus.Emit(Event{Name: EventItemUpdated, Resource: res, ID: it.Key(e.pk), Item: it})
		return it, nil
	}

	snap, had, err := e.store.Item(res, id)
	if err != nil {
		e.log.Warn("store read failed", Fields{"resource": res, "id": id, "err": err.Error()})
		had = false
	}

	merged := snap.Merge(patch)
	if merged.Key(e.pk) == "" {
		merged[e.pk] = id
	}
	if err := e.store.SetItem(res, id, merged); err != nil {
		e.storeWarn("set item", res, id, err)
	}
	e.bus.Emit(Event{Name: EventItemUpdated, Resource: res, ID: id, Item: merged, Optimistic: true})

	it, err := e.tp.Update(ctx, res, id, patch)
	if err != nil {
		final := err
		if rerr := e.restoreItem(res, id, snap, had); rerr != nil {
			final = &RollbackError{Op: "update", Resource: res, ID: id, Cause: err, RestoreErr: rerr}
		}
		e.bus.Emit(Event{Name: EventError, Resource: res, Action: "update", ID: id, Err: final})
		return nil, final
	}

	e.replaceItem(res, id, it)
	e.bus.Emit(Event{Name: EventItemUpdated, Resource: res, ID: it.Key(e.pk), Item: it, Optimistic: false})
	return it, nil
}

func (e *engine) Delete(ctx context.Context, res, id string, opts MutateOptions) error {
	e.bus.Emit(Event{Name: EventBeforeDelete, Resource: res, ID: id})

	if !opts.Optimistic {
		if err := e.tp.Delete(ctx, res, id); err != nil {
			e.bus.Emit(Event{Name: EventError, Resource: res, Action: "delete", ID: id, Err: err})
			return err
		}
		if derr := e.store.DeleteItem(res, id); derr != nil {
			e.storeWarn("delete item", res, id, derr)
		}
		e.bus.Emit(Event{Name: EventItemDeleted, Resource: res, ID: id})
		return nil
	}

	snap, had, err := e.store.Item(res, id)
	if err != nil {
		e.log.Warn("store read failed", Fields{"resource": res, "id": id, "err": err.Error()})
		had = false
	}
	if derr := e.store.DeleteItem(res, id); derr != nil {
		e.storeWarn("delete item", res, id, derr)
	}
	e.bus.Emit(Event{Name: EventItemDeleted, Resource: res, ID: id, Optimistic: true})

	if err := e.tp.Delete(ctx, res, id); err != nil {
		final := err
		if had {
			if rerr := e.store.SetItem(res, id, snap); rerr != nil {
				final = &RollbackError{Op: "delete", Resource: res, ID: id, Cause: err, RestoreErr: rerr}
			}
		}
		e.bus.Emit(Event{Name: EventError, Resource: res, Action: "delete", ID: id, Err: final})
		return final
	}
	e.bus.Emit(Event{Name: EventItemDeleted, Resource: res, ID: id, Optimistic: false})
	return nil
}

// ==============================
// Push
// ==============================

func (e *engine) Subscribe(res string, fn func(resource.Change)) func() {
	if e.stream == nil {
		return func() {}
	}

	e.subMu.Lock()
	id := e.subSeq
	e.subSeq++
	m, ok := e.subs[res]
	if !ok {
		m = make(map[int]func(resource.Change))
		e.subs[res] = m
	}
	m[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if m, ok := e.subs[res]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(e.subs, res)
			}
		}
	}
}

// applyRemote folds one confirmed server-side change into the cache and
// announces it. This path bypasses the optimistic machinery; if it races a
// pending local mutation for the same item, the later cache write wins.
func (e *engine) applyRemote(ch resource.Change) {
	res := ch.Resource
	if res == "" {
		e.log.Debug("dropping remote change without resource", Fields{"type": string(ch.Type)})
		return
	}

	switch ch.Type {
	case resource.ChangeCreate, resource.ChangeUpdate:
		e.cacheItem(res, ch.Item)
	case resource.ChangePatch:
		e.applyRemotePatch(res, ch)
	case resource.ChangeDelete:
		if err := e.store.DeleteItem(res, ch.ID); err != nil {
			e.storeWarn("delete item", res, ch.ID, err)
		}
	}

	e.bus.Emit(Event{Name: remoteEventName(ch.Type), Resource: res, ID: ch.ID, Item: ch.Item, Change: &ch})
	e.dispatch(res, ch)
}

func (e *engine) applyRemotePatch(res string, ch resource.Change) {
	cur, ok, err := e.store.Item(res, ch.ID)
	if err != nil {
		e.log.Warn("store read failed", Fields{"resource": res, "id": ch.ID, "err": err.Error()})
		ok = false
	}

	next := cur.Merge(ch.Patch)
	if !ok && next.Key(e.pk) == "" {
		// patch for an item we have never seen: keep the partial entry
		// addressable under the change's id
		next[e.pk] = ch.ID
	}
	if err := e.store.SetItem(res, ch.ID, next); err != nil {
		e.storeWarn("set item", res, ch.ID, err)
	}
}

func (e *engine) dispatch(res string, ch resource.Change) {
	e.subMu.Lock()
	fns := make([]func(resource.Change), 0, len(e.subs[res]))
	for _, fn := range e.subs[res] {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// ==============================
// Lifecycle
// ==============================

func (e *engine) ResetCache(resources ...string) error {
	return e.store.Reset(resources...)
}

func (e *engine) Events() *Bus { return e.bus }

func (e *engine) Close() error {
	if e.stream != nil {
		_ = e.stream.Close()
	}
	return e.store.Close()
}

// ==============================
// Cache helpers
// ==============================

// cacheItem stores it under its own primary key; items without one are
// served to the caller but never cached.
func (e *engine) cacheItem(res string, it resource.Item) {
	id := it.Key(e.pk)
	if id == "" {
		e.log.Warn("item missing primary key, not cached", Fields{"resource": res, "pk": e.pk})
		return
	}
	if err := e.store.SetItem(res, id, it); err != nil {
		e.storeWarn("set item", res, id, err)
	}
}

// replaceItem swaps the entry at id for the server's item, which may carry
// a different key than the one the caller addressed.
func (e *engine) replaceItem(res, id string, it resource.Item) {
	if sid := it.Key(e.pk); sid != "" && sid != id {
		if err := e.store.DeleteItem(res, id); err != nil {
			e.storeWarn("delete item", res, id, err)
		}
	}
	e.cacheItem(res, it)
}

func (e *engine) cacheList(res, key string, lr resource.ListResult) {
	if err := e.store.SetList(res, key, lr); err != nil {
		e.storeWarn("set list", res, key, err)
	}
	for _, it := range lr.Items {
		e.cacheItem(res, it)
	}
}

// restoreItem puts the pre-mutation state back: the snapshot when one
// existed, otherwise absence. A failed restore drops the entry so the
// optimistic value cannot linger.
func (e *engine) restoreItem(res, id string, snap resource.Item, had bool) error {
	if !had {
		return e.store.DeleteItem(res, id)
	}
	if err := e.store.SetItem(res, id, snap); err != nil {
		_ = e.store.DeleteItem(res, id)
		return err
	}
	return nil
}

func (e *engine) storeWarn(op, res, key string, err error) {
	if errors.Is(err, store.ErrRejected) {
		e.log.Debug("store rejected write", Fields{"op": op, "resource": res, "key": key})
		return
	}
	e.log.Warn("store write failed", Fields{"op": op, "resource": res, "key": key, "err": err.Error()})
}

func remoteEventName(t resource.ChangeType) string {
	switch t {
	case resource.ChangeCreate:
		return EventRemoteCreate
	case resource.ChangeUpdate:
		return EventRemoteUpdate
	case resource.ChangeDelete:
		return EventRemoteDelete
	default:
		return EventRemotePatch
	}
}
