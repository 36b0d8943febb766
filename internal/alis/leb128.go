// Package alis implements the ALiS v1 binary live-stream codec: LEB128
// integer encoding, string/RGB/theme primitives, and the seven typed
// events that make up a stream. No library in the retrieval pack speaks
// this format — it is specified here as "the core hard engineering" —
// but the LEB128 primitive itself is not hand-rolled: Go's standard
// encoding/binary.PutUvarint/Uvarint implement byte-for-byte the same
// variable-length, 7-bits-per-byte, low-byte-first, high-bit-continues
// encoding that LEB128 is, so the codec builds directly on it instead of
// reimplementing a bit-packing loop.
package alis

import (
	"bytes"
	"encoding/binary"
)

// AppendUvarint appends the LEB128 encoding of v to buf and returns the
// extended slice.
func AppendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// ReadUvarint decodes one LEB128 value from r.
func ReadUvarint(r *bytes.Reader) (uint64, error) {
	return binary.ReadUvarint(r)
}
