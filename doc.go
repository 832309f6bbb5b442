// Package rescache keeps a client-side cache of remote resource
// collections in sync with the server that owns them. Reads are
// cache-first with in-flight deduplication of identical list calls;
// mutations can apply optimistically with automatic rollback; a push
// stream folds confirmed server-side changes back into the cache.
//
// Components:
//   - transport.Transport: list/get/create/update/delete against the
//     backend (rest.Client is the reference implementation).
//   - store.Store: holds cached items and list results (unbounded memory,
//     LRU, Ristretto and BigCache backends).
//   - push.Source: delivers raw change payloads (SSE, WebSocket, Redis
//     pub/sub); the engine normalizes and applies them.
//   - Bus: ordered pub/sub carrying the operation lifecycle events.
//
// Optimistic pattern:
//
//	it, err := eng.Create(ctx, "todos", payload, rescache.MutateOptions{Optimistic: true})
//	// the cache immediately shows the draft under a "tmp-" key; on
//	// success the draft is replaced by the server item, on failure it is
//	// rolled back and err carries the transport failure.
//
// The server is the source of truth throughout: whatever a mutation or a
// push message returns replaces local state, and concurrent writers for
// the same item settle as last write wins.
package rescache
