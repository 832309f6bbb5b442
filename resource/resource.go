// Package resource holds the value types shared by the engine, transports,
// push sources and cache stores: items, list results, queries and the
// canonical change-event shape.
package resource

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// Item is a single record of a resource collection. Records are schema-free
// from the engine's perspective; only the primary-key field is interpreted.
type Item map[string]any

// Key returns the canonical string form of the item's primary-key field.
// Empty string means the item carries no usable key.
func (it Item) Key(pk string) string {
	if it == nil {
		return ""
	}
	return CanonicalKey(it[pk])
}

// Clone returns a shallow copy. Nested values are shared.
func (it Item) Clone() Item {
	if it == nil {
		return nil
	}
	return maps.Clone(it)
}

// Merge returns a copy of it with the fields of patch laid over it.
// The merge is shallow; nested objects in patch replace, not combine.
func (it Item) Merge(patch map[string]any) Item {
	out := it.Clone()
	if out == nil {
		out = Item{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// CanonicalKey normalizes a primary-key value to its string form. JSON
// decoding yields float64 for numbers, so numeric keys are rendered without
// exponent or trailing zeros and compare equal across wire sources.
func CanonicalKey(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case int:
		return strconv.Itoa(k)
	case int64:
		return strconv.FormatInt(k, 10)
	case json.Number:
		return k.String()
	default:
		return fmt.Sprint(v)
	}
}

// ListResult is one page of items exactly as returned by the transport.
// Items preserve server order; the engine never re-sorts them.
type ListResult struct {
	Items []Item
	Total int
}

// Clone returns a copy with every item shallow-cloned.
func (lr ListResult) Clone() ListResult {
	out := ListResult{Total: lr.Total}
	if lr.Items != nil {
		out.Items = make([]Item, len(lr.Items))
		for i, it := range lr.Items {
			out.Items[i] = it.Clone()
		}
	}
	return out
}
