package push

import (
	"errors"
	"testing"

	"github.com/unkn0wn-root/rescache/resource"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   resource.Change
		wantOK bool
	}{
		{
			name:   "create",
			raw:    `{"type":"create","resource":"users","item":{"id":"1","name":"ada"}}`,
			want:   resource.Change{Type: resource.ChangeCreate, Resource: "users", Item: resource.Item{"id": "1", "name": "ada"}},
			wantOK: true,
		},
		{
			name:   "update",
			raw:    `{"type":"update","item":{"id":"1"}}`,
			want:   resource.Change{Type: resource.ChangeUpdate, Item: resource.Item{"id": "1"}},
			wantOK: true,
		},
		{
			name:   "delete string id",
			raw:    `{"type":"delete","resource":"users","id":"42"}`,
			want:   resource.Change{Type: resource.ChangeDelete, Resource: "users", ID: "42"},
			wantOK: true,
		},
		{
			name:   "delete numeric id canonicalized",
			raw:    `{"type":"delete","id":42}`,
			want:   resource.Change{Type: resource.ChangeDelete, ID: "42"},
			wantOK: true,
		},
		{
			name:   "patch",
			raw:    `{"type":"patch","id":"7","patch":{"done":true}}`,
			want:   resource.Change{Type: resource.ChangePatch, ID: "7", Patch: map[string]any{"done": true}},
			wantOK: true,
		},
		{
			name:   "unknown type with item maps to update",
			raw:    `{"type":"upserted","item":{"id":"3"}}`,
			want:   resource.Change{Type: resource.ChangeUpdate, Item: resource.Item{"id": "3"}},
			wantOK: true,
		},
		{name: "create without item dropped", raw: `{"type":"create"}`},
		{name: "update without item dropped", raw: `{"type":"update","id":"1"}`},
		{name: "delete without id dropped", raw: `{"type":"delete"}`},
		{name: "patch without patch dropped", raw: `{"type":"patch","id":"7"}`},
		{name: "patch without id dropped", raw: `{"type":"patch","patch":{"a":1}}`},
		{name: "unknown type without item dropped", raw: `{"type":"ping"}`},
		{name: "no type dropped", raw: `{"item":{"id":"1"}}`},
		{name: "array dropped", raw: `[1,2,3]`},
		{name: "scalar dropped", raw: `42`},
		{name: "string dropped", raw: `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Normalize([]byte(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Type != tt.want.Type || got.Resource != tt.want.Resource || got.ID != tt.want.ID {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			if len(got.Item) != len(tt.want.Item) {
				t.Fatalf("item = %v, want %v", got.Item, tt.want.Item)
			}
			for k, v := range tt.want.Item {
				if got.Item[k] != v {
					t.Fatalf("item[%s] = %v, want %v", k, got.Item[k], v)
				}
			}
			if len(got.Patch) != len(tt.want.Patch) {
				t.Fatalf("patch = %v, want %v", got.Patch, tt.want.Patch)
			}
		})
	}
}

func TestNormalizeInvalidJSON(t *testing.T) {
	_, ok, err := Normalize([]byte(`{"type":`))
	if ok {
		t.Fatal("unparsable payload reported ok")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %T %v, want *ParseError", err, err)
	}
}
