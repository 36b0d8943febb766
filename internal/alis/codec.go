package alis

import (
	"fmt"

	"headterm/internal/event"
)

// Magic is the 5-byte sequence every ALiS v1 stream begins with.
var Magic = [5]byte{'A', 'L', 'i', 'S', 0x01}

// Event-type bytes, in the order the wire table lists them.
const (
	TypeInit   byte = 0x01
	TypeEOT    byte = 0x04
	TypeInput  byte = 0x69
	TypeMarker byte = 0x6D
	TypeOutput byte = 0x6F
	TypeResize byte = 0x72
	TypeExit   byte = 0x78
)

// RGB is a single 24-bit color.
type RGB struct {
	R, G, B byte
}

// Theme is the optional foreground/background/palette triple carried by
// an Init event. A nil Theme, or one with neither 8 nor 16 palette
// entries, encodes as "no theme data".
type Theme struct {
	Fg      RGB
	Bg      RGB
	Palette []RGB
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

func appendRGB(buf []byte, c RGB) []byte {
	return append(buf, c.R, c.G, c.B)
}

func appendTheme(buf []byte, th *Theme) []byte {
	if th == nil {
		return append(buf, 0x00)
	}
	switch len(th.Palette) {
	case 8:
		buf = append(buf, 0x08)
	case 16:
		buf = append(buf, 0x10)
	default:
		return append(buf, 0x00)
	}
	buf = appendRGB(buf, th.Fg)
	buf = appendRGB(buf, th.Bg)
	for _, p := range th.Palette {
		buf = appendRGB(buf, p)
	}
	return buf
}

// EncodeInit builds the Init event that begins a logical stream (or
// resumes one, via a non-zero lastID). relTimeMicros is 0 for a fresh
// stream, per §4.4.
func EncodeInit(lastID, relTimeMicros uint64, cols, rows int, theme *Theme, initData string) []byte {
	buf := []byte{TypeInit}
	buf = AppendUvarint(buf, lastID)
	buf = AppendUvarint(buf, relTimeMicros)
	buf = AppendUvarint(buf, uint64(cols))
	buf = AppendUvarint(buf, uint64(rows))
	buf = appendTheme(buf, theme)
	buf = appendString(buf, initData)
	return buf
}

// EncodeOutput builds an Output event.
func EncodeOutput(id, relTimeMicros uint64, data []byte) []byte {
	buf := []byte{TypeOutput}
	buf = AppendUvarint(buf, id)
	buf = AppendUvarint(buf, relTimeMicros)
	return appendBytes(buf, data)
}

// EncodeInput builds an Input event.
func EncodeInput(id, relTimeMicros uint64, data []byte) []byte {
	buf := []byte{TypeInput}
	buf = AppendUvarint(buf, id)
	buf = AppendUvarint(buf, relTimeMicros)
	return appendBytes(buf, data)
}

// EncodeResize builds a Resize event.
func EncodeResize(id, relTimeMicros uint64, cols, rows int) []byte {
	buf := []byte{TypeResize}
	buf = AppendUvarint(buf, id)
	buf = AppendUvarint(buf, relTimeMicros)
	buf = AppendUvarint(buf, uint64(cols))
	buf = AppendUvarint(buf, uint64(rows))
	return buf
}

// EncodeMarker builds a Marker event.
func EncodeMarker(id, relTimeMicros uint64, label string) []byte {
	buf := []byte{TypeMarker}
	buf = AppendUvarint(buf, id)
	buf = AppendUvarint(buf, relTimeMicros)
	return appendString(buf, label)
}

// EncodeExit builds an Exit event. The asciicast v3 exit field is a
// signed JSON number (see recorder.EncodeEvent); this one is unsigned
// LEB128 per §4.4/§9, so a negative status is carried as its 32-bit
// two's-complement bit pattern rather than sign-extended.
func EncodeExit(id, relTimeMicros uint64, status int) []byte {
	buf := []byte{TypeExit}
	buf = AppendUvarint(buf, id)
	buf = AppendUvarint(buf, relTimeMicros)
	buf = AppendUvarint(buf, uint64(uint32(int32(status))))
	return buf
}

// EncodeEOT builds an end-of-transmission event, which carries an id and
// rel-time but no payload.
func EncodeEOT(id, relTimeMicros uint64) []byte {
	buf := []byte{TypeEOT}
	buf = AppendUvarint(buf, id)
	buf = AppendUvarint(buf, relTimeMicros)
	return buf
}

// Stream tracks the per-connection id counter and inter-event clock
// needed to encode a sequence of session events as ALiS v1 messages.
// The zero value is ready to use once Init has been written.
type Stream struct {
	id       uint64
	lastTime event.Event
	started  bool
}

// Init resets the stream's id counter to lastID (0 for a fresh stream)
// and returns the Init message to send first.
func (s *Stream) Init(lastID uint64, cols, rows int, theme *Theme, initData string) []byte {
	s.id = lastID
	s.lastTime = event.Event{}
	s.started = true
	return EncodeInit(lastID, 0, cols, rows, theme, initData)
}

// relTimeMicros returns microseconds since the previous event on this
// stream (not since stream start), per §4.4, and advances the clock.
func (s *Stream) relTimeMicros(t event.Event) uint64 {
	var micros uint64
	if s.started && t.Time > s.lastTime.Time {
		micros = uint64((t.Time - s.lastTime.Time).Microseconds())
	}
	s.lastTime = t
	s.started = true
	s.id++
	return micros
}

// Encode translates one broadcast event into an ALiS v1 binary message.
// Init and Snapshot must not be passed here; use Stream.Init to build
// the Init message directly from a subscribe snapshot.
func (s *Stream) Encode(ev event.Event) ([]byte, error) {
	rel := s.relTimeMicros(ev)
	switch ev.Kind {
	case event.Output:
		return EncodeOutput(s.id, rel, ev.Data), nil
	case event.Input:
		return EncodeInput(s.id, rel, ev.Data), nil
	case event.Resize:
		return EncodeResize(s.id, rel, ev.Cols, ev.Rows), nil
	case event.Marker:
		return EncodeMarker(s.id, rel, ev.Label), nil
	case event.Exit:
		return EncodeExit(s.id, rel, ev.Status), nil
	default:
		return nil, fmt.Errorf("alis: %s is not a streamable event", ev.Kind)
	}
}

// EOT builds an end-of-transmission message for this stream, using the
// time of the last encoded event (so rel-time is 0).
func (s *Stream) EOT() []byte {
	rel := s.relTimeMicros(s.lastTime)
	return EncodeEOT(s.id, rel)
}
