package recorder

import (
	"encoding/json"
	"testing"
	"time"

	"headterm/internal/event"
)

func TestEncodeHeader_SetsVersion3(t *testing.T) {
	line, err := EncodeHeader(Header{Term: TermInfo{Cols: 80, Rows: 24}})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatal(err)
	}
	if got["version"] != float64(3) {
		t.Fatalf("expected version 3, got %v", got["version"])
	}
}

func TestEncodeEvent_ExitStatusIsJSONNumberNotString(t *testing.T) {
	line, _, err := EncodeEvent(event.Event{Kind: event.Exit, Time: 0, Status: 2}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(line, &arr); err != nil {
		t.Fatal(err)
	}
	if len(arr) != 3 {
		t.Fatalf("expected 3-element array, got %d", len(arr))
	}
	if string(arr[2]) != "2" {
		t.Fatalf("expected exit data to be the bare JSON number 2, got %s", arr[2])
	}
}

func TestEncodeEvent_RejectsNonTapeKinds(t *testing.T) {
	for _, k := range []event.Kind{event.Init, event.Snapshot} {
		if _, _, err := EncodeEvent(event.Event{Kind: k}, 0, 0); err == nil {
			t.Fatalf("expected error encoding %v as a tape event", k)
		}
	}
}

func TestEncodeEvent_IdleTimeLimitClampsInterval(t *testing.T) {
	prev := 1 * time.Second
	cur := 10 * time.Second
	line, newPrev, err := EncodeEvent(event.Event{Kind: event.Output, Time: cur, Data: []byte("x")}, prev, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(line, &arr); err != nil {
		t.Fatal(err)
	}
	var interval float64
	if err := json.Unmarshal(arr[0], &interval); err != nil {
		t.Fatal(err)
	}
	if interval != 2.0 {
		t.Fatalf("expected interval clamped to 2.0, got %v", interval)
	}
	if newPrev != cur {
		t.Fatalf("expected prevTime to advance to the event's own Time regardless of clamping, got %v", newPrev)
	}
}

func TestEncodeEvent_OutputCode(t *testing.T) {
	line, _, err := EncodeEvent(event.Event{Kind: event.Output, Time: 500 * time.Millisecond, Data: []byte("hi")}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(line, &arr); err != nil {
		t.Fatal(err)
	}
	var code, data string
	if err := json.Unmarshal(arr[1], &code); err != nil {
		t.Fatal(err)
	}
	if code != "o" {
		t.Fatalf("expected code 'o', got %q", code)
	}
	if err := json.Unmarshal(arr[2], &data); err != nil {
		t.Fatal(err)
	}
	if data != "hi" {
		t.Fatalf("expected data 'hi', got %q", data)
	}
}

func TestEncodeEvent_ResizeCode(t *testing.T) {
	line, _, err := EncodeEvent(event.Event{Kind: event.Resize, Time: 0, Cols: 100, Rows: 40}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(line, &arr); err != nil {
		t.Fatal(err)
	}
	var data string
	if err := json.Unmarshal(arr[2], &data); err != nil {
		t.Fatal(err)
	}
	if data != "100x40" {
		t.Fatalf("expected '100x40', got %q", data)
	}
}
