// Package codec provides pluggable (de)serialization for cache stores that
// persist entries as bytes (e.g. the BigCache-backed store). Stores that hold
// live Go values need no codec.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
