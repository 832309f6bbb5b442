package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/rescache/resource"
)

// Struct serializes items as protobuf Struct messages (wire-compatible with
// google.protobuf.Struct). Values must be JSON-shaped: nil, bool, numbers,
// strings, []any and map[string]any. Encode fails on anything else.
// Numbers come back as float64, same as JSON decoding.
type Struct struct{}

var _ Codec[resource.Item] = Struct{}

func (Struct) Encode(it resource.Item) ([]byte, error) {
	s, err := structpb.NewStruct(it)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (Struct) Decode(b []byte) (resource.Item, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return resource.Item(s.AsMap()), nil
}
