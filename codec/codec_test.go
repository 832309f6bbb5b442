package codec

import (
	"reflect"
	"testing"

	"github.com/unkn0wn-root/rescache/resource"
)

func TestStructRoundTripsItem(t *testing.T) {
	in := resource.Item{
		"id":    "42",
		"title": "deep work",
		"done":  false,
		"score": 9.5,
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"rev": float64(3)},
		"gone":  nil,
	}
	b, err := Struct{}.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Struct{}.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(map[string]any(in), map[string]any(out)) {
		t.Fatalf("round trip mismatch:\n in=%v\nout=%v", in, out)
	}
}

func TestStructRejectsNonJSONValues(t *testing.T) {
	if _, err := (Struct{}).Encode(resource.Item{"ch": make(chan int)}); err == nil {
		t.Fatalf("expected error for non-JSON value")
	}
}

func TestJSONItemNumbers(t *testing.T) {
	b, err := JSON[resource.Item]{}.Encode(resource.Item{"id": 7})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := JSON[resource.Item]{}.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// JSON numbers decode to float64; canonical keys even out the difference.
	if got := out.Key("id"); got != "7" {
		t.Fatalf("canonical key after JSON round trip: %q", got)
	}
}

func TestCBORListResult(t *testing.T) {
	c := MustCBOR[resource.ListResult](true)
	in := resource.ListResult{Items: []resource.Item{{"id": "1"}, {"id": "2"}}, Total: 9}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Total != 9 || len(out.Items) != 2 || out.Items[1].Key("id") != "2" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestMsgpackItemKeys(t *testing.T) {
	b, err := Msgpack[resource.Item]{}.Encode(resource.Item{"id": 42})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Msgpack[resource.Item]{}.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := out.Key("id"); got != "42" {
		t.Fatalf("canonical key after msgpack round trip: %q", got)
	}
}

func TestLimitCodecCapsDecode(t *testing.T) {
	lc := LimitCodec[resource.Item]{Inner: JSON[resource.Item]{}, MaxDecode: 8}

	big, err := lc.Encode(resource.Item{"title": "way past eight bytes"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := lc.Decode(big); err == nil {
		t.Fatalf("expected error for oversized payload")
	}

	// Limit disabled when MaxDecode <= 0.
	lc.MaxDecode = 0
	if _, err := lc.Decode(big); err != nil {
		t.Fatalf("decode with disabled limit: %v", err)
	}
}
