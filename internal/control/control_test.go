package control

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"headterm/internal/event"
	"headterm/internal/session"
)

func TestRunCommandReader_Dispatch(t *testing.T) {
	sess, err := session.New(1, 80, 24, true)
	if err != nil {
		t.Fatal(err)
	}
	_, sub := sess.Subscribe()

	var written bytes.Buffer
	write := func(b []byte) error {
		written.Write(b)
		return nil
	}

	input := strings.NewReader(
		`{"type":"sendKeys","keys":["ls","Enter"]}` + "\n" +
			`{"type":"resize","cols":100,"rows":40}` + "\n" +
			`{"type":"mark","label":"checkpoint"}` + "\n",
	)

	var snap *event.Event
	RunCommandReader(context.Background(), input, sess, write, func(ev event.Event) {
		snap = &ev
	})

	if written.String() != "ls\r" {
		t.Fatalf("expected sendKeys to write \"ls\\r\", got %q", written.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resizeEv, _, err := sub.Recv(ctx)
	if err != nil || resizeEv.Kind != event.Resize || resizeEv.Cols != 100 {
		t.Fatalf("expected resize event, got %+v err=%v", resizeEv, err)
	}
	markEv, _, err := sub.Recv(ctx)
	if err != nil || markEv.Kind != event.Marker || markEv.Label != "checkpoint" {
		t.Fatalf("expected marker event, got %+v err=%v", markEv, err)
	}
	if snap != nil {
		t.Fatalf("no takeSnapshot command was sent, snap should be nil")
	}
}

func TestRunCommandReader_TakeSnapshot(t *testing.T) {
	sess, err := session.New(1, 80, 24, false)
	if err != nil {
		t.Fatal(err)
	}

	input := strings.NewReader(`{"type":"takeSnapshot"}` + "\n")
	var got *event.Event
	RunCommandReader(context.Background(), input, sess, func([]byte) error { return nil }, func(ev event.Event) {
		got = &ev
	})

	if got == nil || got.Kind != event.Snapshot {
		t.Fatalf("expected a Snapshot reply, got %+v", got)
	}
}

func TestPrinter_Emit_OutputShape(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	if err := p.Emit(event.Event{Kind: event.Output, Data: []byte("hi")}); err != nil {
		t.Fatal(err)
	}

	var got struct {
		Type string `json:"type"`
		Data struct {
			Seq string `json:"seq"`
		} `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "output" || got.Data.Seq != "hi" {
		t.Fatalf("unexpected printed event: %+v", got)
	}
}

func TestPrinter_Emit_ExitShape(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	if err := p.Emit(event.Event{Kind: event.Exit, Status: 7}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"status":7`) {
		t.Fatalf("expected status 7 in output: %s", buf.String())
	}
}
