package rescache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/unkn0wn-root/rescache/push"
	"github.com/unkn0wn-root/rescache/resource"
	"github.com/unkn0wn-root/rescache/store"
	"github.com/unkn0wn-root/rescache/transport"
)

// MutateOptions tune a single mutation call.
type MutateOptions struct {
	// Optimistic applies the change to the cache before the transport
	// call settles and rolls it back on failure.
	Optimistic bool
}

// Coordinator is another name for Engine.
type Coordinator = Engine

// Engine is the public surface: cache-synchronized reads and writes over
// named resource collections, with lifecycle events on the bus.
type Engine interface {
	// List fetches one page of a collection. Concurrent calls with the
	// same resource and canonical query share a single transport call and
	// observe the same result; sequential calls always hit the transport.
	List(ctx context.Context, res string, q resource.Query) (resource.ListResult, error)

	// Get is cache-first: a cached item returns without a transport call.
	Get(ctx context.Context, res, id string) (resource.Item, error)

	// Create stores a new item and returns the server's version of it.
	Create(ctx context.Context, res string, data resource.Item, opts MutateOptions) (resource.Item, error)

	// Update applies a shallow patch and returns the server's version.
	Update(ctx context.Context, res, id string, patch map[string]any, opts MutateOptions) (resource.Item, error)

	// Delete removes an item.
	Delete(ctx context.Context, res, id string, opts MutateOptions) error

	// Subscribe registers fn for confirmed server-side changes to res.
	// Without a push source it returns a usable no-op unsubscribe.
	Subscribe(res string, fn func(resource.Change)) (unsubscribe func())

	// ResetCache clears the named resources, or everything when called
	// with none. No transport call.
	ResetCache(resources ...string) error

	// Events returns the engine's bus.
	Events() *Bus

	Close() error
}

// Options tune an engine. Only Transport is required; others have
// sensible defaults.
type Options struct {
	// Required
	Transport transport.Transport

	Store        store.Store     // nil => in-process unbounded store
	Push         push.Source     // nil => no push support
	PushResource string          // optional resource scope for the push stream
	Bus          *Bus            // nil => a fresh private bus
	Logger       Logger          // if nil, NopLogger is used
	PrimaryKey   string          // item key field; "" => "id"

	ReconnectInitial time.Duration   // push backoff start; 0 => 1s
	ReconnectMax     time.Duration   // push backoff cap; 0 => 30s
	Clock            clockwork.Clock // push reconnect timing; nil => wall clock
}

// New builds an engine. When Options.Push is set the push stream starts
// immediately and stays up until Close.
func New(opts Options) (Engine, error) {
	return NewWithContext(context.Background(), opts)
}

// NewWithContext is New with a lifecycle context: cancelling it stops the
// push stream just like Close does.
func NewWithContext(ctx context.Context, opts Options) (Engine, error) {
	return newEngine(ctx, opts)
}
