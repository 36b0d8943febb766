package session

import (
	"context"
	"testing"
	"time"

	"headterm/internal/broadcast"
	"headterm/internal/event"
)

func TestNew_ValidatesSize(t *testing.T) {
	if _, err := New(1, 0, 24, false); err == nil {
		t.Fatal("expected error for zero cols")
	}
	if _, err := New(1, 80, 65536, false); err == nil {
		t.Fatal("expected error for rows over max")
	}
	if _, err := New(1, 80, 24, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func recv(t *testing.T, sub *broadcast.Subscriber) event.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, _, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	return ev
}

func TestSubscribe_InitReflectsCurrentState(t *testing.T) {
	s, err := New(123, 80, 24, false)
	if err != nil {
		t.Fatal(err)
	}
	s.Output([]byte("hello"))

	init, sub := s.Subscribe()
	if init.Kind != event.Init {
		t.Fatalf("expected Init, got %v", init.Kind)
	}
	if init.Pid != 123 || init.Cols != 80 || init.Rows != 24 {
		t.Fatalf("unexpected init fields: %+v", init)
	}

	s.Output([]byte(" world"))
	ev := recv(t, sub)
	if ev.Kind != event.Output || string(ev.Data) != " world" {
		t.Fatalf("expected post-subscribe output event, got %+v", ev)
	}
}

func TestResize_AlwaysEmitsEvenOnSameDimensions(t *testing.T) {
	s, err := New(1, 80, 24, false)
	if err != nil {
		t.Fatal(err)
	}
	_, sub := s.Subscribe()

	if err := s.Resize(80, 24); err != nil {
		t.Fatal(err)
	}
	ev := recv(t, sub)
	if ev.Kind != event.Resize || ev.Cols != 80 || ev.Rows != 24 {
		t.Fatalf("unexpected resize event: %+v", ev)
	}

	if err := s.Resize(80, 24); err != nil {
		t.Fatal(err)
	}
	ev2 := recv(t, sub)
	if ev2.Kind != event.Resize {
		t.Fatalf("expected a second resize event for identical dimensions, got %+v", ev2)
	}
}

func TestInput_OnlyPublishedWhenCaptureEnabled(t *testing.T) {
	s, err := New(1, 80, 24, false)
	if err != nil {
		t.Fatal(err)
	}
	_, sub := s.Subscribe()
	s.Input([]byte("ls\n"))
	s.Mark("probe")

	ev := recv(t, sub)
	if ev.Kind != event.Marker {
		t.Fatalf("expected input to be suppressed and marker to arrive first, got %+v", ev)
	}
}

func TestExit_IsIdempotentAndStopsFurtherEvents(t *testing.T) {
	s, err := New(1, 80, 24, false)
	if err != nil {
		t.Fatal(err)
	}
	_, sub := s.Subscribe()

	s.Exit(0)
	s.Exit(1)

	ev := recv(t, sub)
	if ev.Kind != event.Exit || ev.Status != 0 {
		t.Fatalf("expected first exit status to win, got %+v", ev)
	}

	s.Mark("after exit")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, err := sub.Recv(ctx); err != broadcast.ErrClosed {
		t.Fatalf("expected ErrClosed after exit drains, got %v", err)
	}
}

func TestEventTimestamps_AreNonDecreasing(t *testing.T) {
	s, err := New(1, 80, 24, false)
	if err != nil {
		t.Fatal(err)
	}
	_, sub := s.Subscribe()

	s.Output([]byte("a"))
	s.Output([]byte("b"))
	s.Mark("m")

	var last time.Duration
	for i := 0; i < 3; i++ {
		ev := recv(t, sub)
		if ev.Time < last {
			t.Fatalf("event %d time %v is less than previous %v", i, ev.Time, last)
		}
		last = ev.Time
	}
}

func TestSnapshotRequest_NotBroadcast(t *testing.T) {
	s, err := New(1, 80, 24, false)
	if err != nil {
		t.Fatal(err)
	}
	_, sub := s.Subscribe()

	snap := s.SnapshotRequest()
	if snap.Kind != event.Snapshot {
		t.Fatalf("expected Snapshot kind, got %v", snap.Kind)
	}

	s.Mark("after snapshot")
	ev := recv(t, sub)
	if ev.Kind != event.Marker {
		t.Fatalf("snapshot request leaked onto the bus: %+v", ev)
	}
}
