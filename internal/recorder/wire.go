// Package recorder persists a session's event stream to disk as an
// asciicast v3 NDJSON recording, and drives a live text-JSON stream of
// the same events over a websocket. Grounded on the append-only JSONL
// eventstore in h2's internal/session/agent/shared/eventstore
// (buffered, append-mode, one JSON value per line), generalized from an
// internal AgentEvent envelope to the asciicast v3 header-plus-array
// wire shape so the file this package writes is directly playable by
// any asciicast v3 player.
package recorder

import (
	"encoding/json"
	"fmt"
	"time"

	"headterm/internal/event"
)

// Header is the first line of an asciicast v3 recording.
type Header struct {
	Version       int               `json:"version"`
	Term          TermInfo          `json:"term"`
	Timestamp     int64             `json:"timestamp,omitempty"`
	IdleTimeLimit float64           `json:"idle_time_limit,omitempty"`
	Command       string            `json:"command,omitempty"`
	Title         string            `json:"title,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

// TermInfo describes the recorded terminal.
type TermInfo struct {
	Cols  int    `json:"cols"`
	Rows  int    `json:"rows"`
	Type  string `json:"type,omitempty"`
	Theme *Theme `json:"theme,omitempty"`
}

// Theme is the optional 8/16-color palette plus foreground/background
// recorded in the header so a player can reproduce the original colors.
// Palette is a single ":"-separated string of "#RRGGBB" entries, per the
// asciicast v3 header format — not a JSON array.
type Theme struct {
	Fg      string `json:"fg"`
	Bg      string `json:"bg"`
	Palette string `json:"palette,omitempty"`
}

// event type codes used in the NDJSON body's [time, code, data] arrays.
const (
	codeOutput = "o"
	codeInput  = "i"
	codeResize = "r"
	codeMarker = "m"
	codeExit   = "x"
)

// EncodeHeader marshals h as the recording's first NDJSON line.
func EncodeHeader(h Header) ([]byte, error) {
	h.Version = 3
	line, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode asciicast header: %w", err)
	}
	return append(line, '\n'), nil
}

// EncodeEvent renders one session event as an asciicast v3 body line.
// idleTimeLimit, if non-zero, clamps the interval between this event
// and the previous one (per §4.3/§4.5, idle-time-limiting is applied at
// record time, not left to the player). prevTime is the Time of the
// last event written to this stream, or the stream's own zero point for
// the first event. Init and Snapshot are control-plane-only and are
// never encoded; callers must not pass them.
func EncodeEvent(ev event.Event, prevTime time.Duration, idleTimeLimit float64) ([]byte, time.Duration, error) {
	interval := (ev.Time - prevTime).Seconds()
	if interval < 0 {
		interval = 0
	}
	if idleTimeLimit > 0 && interval > idleTimeLimit {
		interval = idleTimeLimit
	}

	var code string
	var data any
	switch ev.Kind {
	case event.Output:
		code = codeOutput
		data = string(ev.Data)
	case event.Input:
		code = codeInput
		data = string(ev.Data)
	case event.Resize:
		code = codeResize
		data = fmt.Sprintf("%dx%d", ev.Cols, ev.Rows)
	case event.Marker:
		code = codeMarker
		data = ev.Label
	case event.Exit:
		code = codeExit
		// The exit code is a signed JSON number, not a string, per the
		// asciicast v3 body grammar.
		data = ev.Status
	default:
		return nil, prevTime, fmt.Errorf("encode asciicast event: %s is not a recordable tape event", ev.Kind)
	}

	line, err := json.Marshal([]any{roundSeconds(interval), code, data})
	if err != nil {
		return nil, prevTime, fmt.Errorf("encode asciicast event: %w", err)
	}
	return append(line, '\n'), ev.Time, nil
}

// roundSeconds trims floating-point noise from an interval before it is
// serialized, matching the precision real asciicast recordings use.
func roundSeconds(s float64) float64 {
	const scale = 1e6
	return float64(int64(s*scale+0.5)) / scale
}
