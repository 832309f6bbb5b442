package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version  byte = 1
	kindItem byte = 1
	kindList byte = 2
)

var (
	ErrCorrupt = errors.New("rescache: corrupt entry")
	magic4     = [...]byte{'R', 'S', 'C', 'H'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Frame: magic(4) | ver(1) | kind(1) | vlen(u32 be) | payload(vlen)
// Decoding is strict: trailing bytes beyond the declared payload are treated
// as corruption so a store can self-heal mangled entries instead of serving
// them.

// EncodeItem frames an encoded item payload.
func EncodeItem(payload []byte) []byte { return encode(kindItem, payload) }

// EncodeList frames an encoded list-result payload.
func EncodeList(payload []byte) []byte { return encode(kindList, payload) }

// DecodeItem unframes an item payload. The returned slice aliases b.
func DecodeItem(b []byte) ([]byte, error) { return decode(kindItem, b) }

// DecodeList unframes a list-result payload. The returned slice aliases b.
func DecodeList(b []byte) ([]byte, error) { return decode(kindList, b) }

func encode(kind byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func decode(kind byte, b []byte) ([]byte, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kind {
		return nil, ErrCorrupt
	}

	off := 6
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off {
		return nil, ErrCorrupt
	}
	if off+vlen != len(b) { // strict framing: no trailing bytes
		return nil, ErrCorrupt
	}

	return b[off : off+vlen], nil
}
