package alis

import (
	"bytes"
	"testing"
)

func TestAppendUvarint_EdgeValues(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{1000, []byte{0xE8, 0x07}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, c := range cases {
		got := AppendUvarint(nil, c.v)
		if !bytes.Equal(got, c.want) {
			t.Errorf("AppendUvarint(%d) = % X, want % X", c.v, got, c.want)
		}
	}
}

func TestUvarint_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 1000, 16384, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range values {
		buf := AppendUvarint(nil, v)
		got, err := ReadUvarint(bytes.NewReader(buf))
		if err != nil {
			t.Fatalf("ReadUvarint(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d -> % X -> %d", v, buf, got)
		}
	}
}
