package alis

import (
	"bytes"
	"testing"
	"time"

	"headterm/internal/event"
)

func TestEncodeInit_MatchesWorkedExample(t *testing.T) {
	// cols=80, rows=24, no theme, init data "Hello!", fresh stream.
	got := EncodeInit(0, 0, 80, 24, nil, "Hello!")
	want := []byte{0x01, 0x00, 0x00, 0x50, 0x18, 0x00, 0x06, 0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x21}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeInit = % X, want % X", got, want)
	}
}

func TestMagic(t *testing.T) {
	if Magic != [5]byte{'A', 'L', 'i', 'S', 0x01} {
		t.Fatalf("unexpected magic: % X", Magic[:])
	}
}

func TestEventTypeBytes_AreTheSpecifiedSet(t *testing.T) {
	want := map[byte]bool{0x01: true, 0x04: true, 0x69: true, 0x6D: true, 0x6F: true, 0x72: true, 0x78: true}
	got := []byte{TypeInit, TypeEOT, TypeInput, TypeMarker, TypeOutput, TypeResize, TypeExit}
	for _, b := range got {
		if !want[b] {
			t.Errorf("type byte %#x is not in the specified set", b)
		}
		delete(want, b)
	}
	if len(want) != 0 {
		t.Errorf("specified set has unused bytes: %v", want)
	}
}

func TestStream_IdsIncreaseAndRelTimeIsNonNegative(t *testing.T) {
	s := &Stream{}
	_ = s.Init(0, 80, 24, nil, "")

	events := []event.Event{
		{Kind: event.Output, Time: 100 * time.Millisecond, Data: []byte("a")},
		{Kind: event.Output, Time: 250 * time.Millisecond, Data: []byte("b")},
		{Kind: event.Marker, Time: 250 * time.Millisecond, Label: "x"},
	}

	var lastID uint64
	for i, ev := range events {
		msg, err := s.Encode(ev)
		if err != nil {
			t.Fatal(err)
		}
		if len(msg) < 3 {
			t.Fatalf("event %d: message too short", i)
		}
		id, n := decodeUvarintAt(t, msg[1:])
		if id <= lastID {
			t.Fatalf("event %d: id %d did not increase from %d", i, id, lastID)
		}
		lastID = id
		rel, _ := decodeUvarintAt(t, msg[1+n:])
		if int64(rel) < 0 {
			t.Fatalf("event %d: negative rel-time", i)
		}
	}
}

func TestEncodeExit_UnsignedLEB128NotSignedJSON(t *testing.T) {
	msg := EncodeExit(1, 0, 2)
	want := []byte{TypeExit, 0x01, 0x00, 0x02}
	if !bytes.Equal(msg, want) {
		t.Fatalf("EncodeExit(2) = % X, want % X", msg, want)
	}
}

func TestEncodeTheme_8And16PaletteSizes(t *testing.T) {
	th8 := &Theme{Fg: RGB{1, 2, 3}, Bg: RGB{4, 5, 6}, Palette: make([]RGB, 8)}
	buf := appendTheme(nil, th8)
	if buf[0] != 0x08 || len(buf) != 1+30 {
		t.Fatalf("8-color theme: got discriminator %#x len %d", buf[0], len(buf))
	}

	th16 := &Theme{Fg: RGB{1, 2, 3}, Bg: RGB{4, 5, 6}, Palette: make([]RGB, 16)}
	buf16 := appendTheme(nil, th16)
	if buf16[0] != 0x10 || len(buf16) != 1+54 {
		t.Fatalf("16-color theme: got discriminator %#x len %d", buf16[0], len(buf16))
	}

	bufNil := appendTheme(nil, nil)
	if !bytes.Equal(bufNil, []byte{0x00}) {
		t.Fatalf("nil theme: got % X, want [00]", bufNil)
	}
}

func decodeUvarintAt(t *testing.T, buf []byte) (uint64, int) {
	t.Helper()
	v, err := ReadUvarint(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("decode uvarint: %v", err)
	}
	// Re-encode to find how many bytes it consumed (ReadUvarint doesn't
	// report length directly from a bytes.Reader).
	return v, len(AppendUvarint(nil, v))
}
