package rescache

import (
	"sync"

	"github.com/unkn0wn-root/rescache/resource"
)

// Event names emitted by an engine. Read operations get before/after
// pairs; mutations get a before event and a past-tense item event (twice
// on the optimistic path: tagged true first, then the settled one).
// Server-side changes arrive as remote:* events.
const (
	EventBeforeList = "before:list"
	EventAfterList  = "after:list"
	EventBeforeGet  = "before:get"
	EventAfterGet   = "after:get"

	EventBeforeCreate = "before:create"
	EventItemCreated  = "item:created"
	EventBeforeUpdate = "before:update"
	EventItemUpdated  = "item:updated"
	EventBeforeDelete = "before:delete"
	EventItemDeleted  = "item:deleted"

	EventError = "error"

	EventRemoteCreate = "remote:create"
	EventRemoteUpdate = "remote:update"
	EventRemoteDelete = "remote:delete"
	EventRemotePatch  = "remote:patch"
)

// Event is one lifecycle notification. Name and Resource are always set;
// the rest depends on the event: Query/Result for list events, Item/ID for
// item events, Change for remote events, Action and Err for error events.
type Event struct {
	Name     string
	Resource string

	// Action names the operation that produced an error event
	// ("list", "get", "create", "update", "delete", "push").
	Action string

	Query  *resource.Query
	Result *resource.ListResult
	Item   resource.Item
	ID     string

	// Optimistic is true on the item event emitted inside the optimistic
	// window, before the transport call settles.
	Optimistic bool

	Change *resource.Change
	Err    error
}

// Handler receives events. Handlers run synchronously on the goroutine
// that emitted the event, in subscription order; slow consumers should
// hand off (see hooks/async). A panicking handler propagates.
type Handler func(Event)

// Bus is an ordered pub/sub for engine events. Each engine owns its own
// bus unless one is shared explicitly through Options, so two engines
// never cross-talk.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []busSub
}

type busSub struct {
	id   int
	name string
	h    Handler
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers h for events with the given name; the empty name
// subscribes to everything. The returned func removes the subscription and
// is safe to call more than once.
func (b *Bus) Subscribe(name string, h Handler) (off func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs = append(b.subs, busSub{id: id, name: name, h: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to matching subscribers in subscription order. The
// subscriber list is snapshotted first, so handlers may subscribe or
// unsubscribe freely.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.name == "" || s.name == ev.Name {
			matched = append(matched, s.h)
		}
	}
	b.mu.RUnlock()

	for _, h := range matched {
		h(ev)
	}
}
