// Package transport defines the adapter boundary between the engine and a
// remote backend. The engine never builds URLs or speaks a wire protocol
// itself; it hands every read and write to a Transport and treats whatever
// comes back as authoritative.
package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/unkn0wn-root/rescache/resource"
)

// Transport performs remote operations for named resource collections.
//
// Mutations must return the server's version of the item; the engine
// replaces any optimistic state with it. Implementations should return
// *Error for protocol-level failures so callers can inspect the status and
// response body.
type Transport interface {
	List(ctx context.Context, res string, q resource.Query) (resource.ListResult, error)
	Get(ctx context.Context, res, id string) (resource.Item, error)
	Create(ctx context.Context, res string, data resource.Item) (resource.Item, error)
	Update(ctx context.Context, res, id string, patch map[string]any) (resource.Item, error)
	Delete(ctx context.Context, res, id string) error
}

// SchemaProvider is an optional extension for backends that can describe a
// resource's shape.
type SchemaProvider interface {
	Schema(ctx context.Context, res string) (map[string]any, error)
}

// HeaderFunc supplies request headers, typically auth. It runs once per
// request so short-lived credentials stay fresh.
type HeaderFunc func(ctx context.Context) (http.Header, error)

// Error is a remote failure with protocol context attached. Body holds a
// bounded prefix of the response so error messages stay readable.
type Error struct {
	Op       string
	Resource string
	ID       string
	Status   int
	Body     []byte
}

func (e *Error) Error() string {
	target := e.Resource
	if e.ID != "" {
		target += "/" + e.ID
	}
	msg := fmt.Sprintf("transport: %s %s: status %d", e.Op, target, e.Status)

	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	if len(body) > 0 {
		msg += ": " + string(body)
	}
	return msg
}
