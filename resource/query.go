package resource

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Query describes list parameters: pagination, ordering and field filters.
// The zero value lists everything with server defaults.
type Query struct {
	Page    int
	PerPage int
	Sort    string
	Order   string // "asc" or "desc"; meaningful only with Sort
	Filter  map[string]any
}

// Key returns the canonical cache key for the query. Equal queries produce
// identical keys regardless of filter map iteration order, so the same
// normalization serves both list-result caching and in-flight deduplication.
func (q Query) Key() string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
		if q.Order != "" {
			v.Set("order", q.Order)
		}
	}
	for k, fv := range q.Filter {
		v.Set("f:"+k, filterValue(fv))
	}
	return v.Encode() // sorted by key
}

// filterValue renders a filter value deterministically. JSON keeps types
// apart (the string "true" and the bool true must not collide) and sorts
// object keys.
func filterValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
