// Package store defines the cache backing an engine instance: per-resource
// item maps keyed by primary key, plus list results keyed by canonical query
// key.
//
// Stores are pure data holders. All mutation flows through engine operations;
// external code must not write to a store an engine owns. Implementations
// must be safe for concurrent use and must return values the caller may
// mutate freely (no aliasing of internal state): copy on the way in and on
// the way out.
package store

import (
	"errors"

	"github.com/unkn0wn-root/rescache/resource"
)

// ErrRejected signals that a bounded store refused a write under pressure
// (admission policy, size caps). It degrades a cache write to a no-op and is
// not an operation failure.
var ErrRejected = errors.New("store: write rejected")

// Store holds cached items and list results per resource.
type Store interface {
	// Item returns (item, true, nil) on hit; (nil, false, nil) on miss.
	Item(res, id string) (resource.Item, bool, error)

	// SetItem stores an item under its key. May return ErrRejected.
	SetItem(res, id string, it resource.Item) error

	// DeleteItem removes an item (no-op when absent).
	DeleteItem(res, id string) error

	// List returns the cached result for a canonical query key.
	List(res, key string) (resource.ListResult, bool, error)

	// SetList stores a list result under a canonical query key.
	// May return ErrRejected.
	SetList(res, key string, lr resource.ListResult) error

	// Reset clears the named resources, or everything when called with none.
	Reset(resources ...string) error

	// Close releases resources.
	Close() error
}
