package resource

import (
	"encoding/json"
	"testing"
)

func TestItemKeyCanonicalization(t *testing.T) {
	cases := []struct {
		name string
		val  any
		want string
	}{
		{"string", "abc", "abc"},
		{"json_number_float", float64(42), "42"},
		{"float_fraction", 1.5, "1.5"},
		{"int", 7, "7"},
		{"int64", int64(9000000000), "9000000000"},
		{"number_type", json.Number("42"), "42"},
		{"nil", nil, ""},
		{"bool_fallback", true, "true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := Item{"id": tc.val}
			if got := it.Key("id"); got != tc.want {
				t.Fatalf("Key(%v) = %q, want %q", tc.val, got, tc.want)
			}
		})
	}

	// Missing field and nil item both yield the empty key.
	if got := (Item{"title": "x"}).Key("id"); got != "" {
		t.Fatalf("missing pk: got %q", got)
	}
	if got := (Item(nil)).Key("id"); got != "" {
		t.Fatalf("nil item: got %q", got)
	}
}

func TestItemCloneIsolation(t *testing.T) {
	orig := Item{"id": "1", "title": "a"}
	cp := orig.Clone()
	cp["title"] = "b"
	if orig["title"] != "a" {
		t.Fatalf("mutating clone leaked into original: %v", orig)
	}
	if (Item(nil)).Clone() != nil {
		t.Fatalf("nil clone should stay nil")
	}
}

func TestItemMergeShallow(t *testing.T) {
	base := Item{"id": "1", "title": "a", "meta": map[string]any{"x": 1}}
	out := base.Merge(map[string]any{"title": "b", "meta": map[string]any{"y": 2}})

	if out["title"] != "b" || out["id"] != "1" {
		t.Fatalf("merge result wrong: %v", out)
	}
	// Shallow: patch objects replace, not combine.
	meta, _ := out["meta"].(map[string]any)
	if _, stillThere := meta["x"]; stillThere {
		t.Fatalf("merge should be shallow, got %v", meta)
	}
	// Original untouched.
	if base["title"] != "a" {
		t.Fatalf("merge mutated receiver: %v", base)
	}

	// Merging into a nil item starts from empty.
	got := (Item(nil)).Merge(map[string]any{"k": "v"})
	if got["k"] != "v" {
		t.Fatalf("nil merge: %v", got)
	}
}

func TestListResultCloneIsolation(t *testing.T) {
	lr := ListResult{Items: []Item{{"id": "1"}}, Total: 1}
	cp := lr.Clone()
	cp.Items[0]["id"] = "2"
	if lr.Items[0]["id"] != "1" {
		t.Fatalf("clone shares item maps")
	}
}

// ==============================
// Query key normalization
// ==============================

func TestQueryKeyDeterministic(t *testing.T) {
	a := Query{Page: 2, PerPage: 10, Sort: "title", Order: "asc",
		Filter: map[string]any{"status": "active", "tags": []any{"a", "b"}}}
	b := Query{Page: 2, PerPage: 10, Sort: "title", Order: "asc",
		Filter: map[string]any{"tags": []any{"a", "b"}, "status": "active"}}
	if a.Key() != b.Key() {
		t.Fatalf("equal queries produced different keys:\n%q\n%q", a.Key(), b.Key())
	}
}

func TestQueryKeyDistinguishes(t *testing.T) {
	base := Query{Page: 1, Filter: map[string]any{"status": "active"}}
	variants := []Query{
		{Page: 2, Filter: map[string]any{"status": "active"}},
		{Page: 1, Filter: map[string]any{"status": "archived"}},
		{Page: 1, Filter: map[string]any{"status": true}}, // type matters
		{Page: 1},
	}
	for i, v := range variants {
		if base.Key() == v.Key() {
			t.Fatalf("variant %d collided with base: %q", i, base.Key())
		}
	}
}

func TestQueryKeyZeroValue(t *testing.T) {
	if (Query{}).Key() != "" {
		t.Fatalf("zero query should have empty key, got %q", (Query{}).Key())
	}
}

// ==============================
// Temporary keys
// ==============================

func TestTempKeys(t *testing.T) {
	k1 := NewTempKey()
	k2 := NewTempKey()
	if k1 == k2 {
		t.Fatalf("temp keys must be unique, got %q twice", k1)
	}
	if !IsTempKey(k1) || !IsTempKey(k2) {
		t.Fatalf("generated keys must carry the temp prefix: %q %q", k1, k2)
	}
	if IsTempKey("server-123") {
		t.Fatalf("server key misreported as temporary")
	}
}
