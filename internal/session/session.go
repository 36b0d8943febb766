// Package session implements the session core: the single owner of one
// child process's VT model, and the only writer to the broadcast bus.
// The PTY driver itself is owned by the caller, which feeds its output
// in through Output. All mutating operations funnel through Session's
// methods, which serialize on an internal mutex so that VT mutation,
// event construction, and publication happen as one atomic step no
// matter which goroutine (PTY reader, control-plane reader, resize
// handler) calls in.
package session

import (
	"fmt"
	"sync"
	"time"

	"headterm/internal/broadcast"
	"headterm/internal/event"
	"headterm/internal/vt"
)

// maxDim is the largest permitted terminal dimension (§8 edge cases).
const maxDim = 65535

// Session owns one child session's VT buffer, exit state, and broadcast
// bus. The zero value is not usable; construct with New.
type Session struct {
	mu   sync.Mutex
	vt   *vt.VT
	bus  *broadcast.Bus
	start time.Time
	lastTime time.Duration

	pid          int
	cols, rows   int
	captureInput bool

	exited     bool
	exitStatus int
}

// New creates a session core for a child process already running with
// pid, with an initially blank VT of cols x rows.
func New(pid, cols, rows int, captureInput bool) (*Session, error) {
	if err := validateSize(cols, rows); err != nil {
		return nil, err
	}
	return &Session{
		vt:           vt.New(cols, rows),
		bus:          broadcast.New(broadcast.Capacity),
		start:        time.Now(),
		pid:          pid,
		cols:         cols,
		rows:         rows,
		captureInput: captureInput,
	}, nil
}

func validateSize(cols, rows int) error {
	if cols < 1 || cols > maxDim || rows < 1 || rows > maxDim {
		return fmt.Errorf("invalid terminal size %dx%d: dimensions must be within 1..%d", cols, rows, maxDim)
	}
	return nil
}

// elapsedLocked returns seconds-since-start for the event about to be
// published, clamped to never go backwards relative to the previous
// event even if the wall clock is adjusted mid-session. Caller must
// hold s.mu.
func (s *Session) elapsedLocked() time.Duration {
	now := time.Since(s.start)
	if now < s.lastTime {
		now = s.lastTime
	}
	s.lastTime = now
	return now
}

// Pid returns the child process id recorded at session creation.
func (s *Session) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// Size returns the session's current terminal dimensions.
func (s *Session) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Exited reports whether Exit has already been called.
func (s *Session) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

// Output feeds child PTY bytes into the VT and publishes an Output
// event. A no-op once the session has exited.
func (s *Session) Output(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return
	}
	s.vt.Write(data)
	t := s.elapsedLocked()
	s.bus.Publish(event.Event{Kind: event.Output, Time: t, Data: data})
}

// Input records operator-supplied bytes destined for the child's stdin.
// Only published as a tape event when input capture is enabled; the
// bytes still reach the child PTY through a separate write path
// regardless of capture state. A no-op once the session has exited.
func (s *Session) Input(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited || !s.captureInput {
		return
	}
	t := s.elapsedLocked()
	s.bus.Publish(event.Event{Kind: event.Input, Time: t, Data: data})
}

// Resize changes the VT's dimensions and always publishes a Resize
// event, even when cols/rows match the current size (§8: a resize to
// identical dimensions is still an observable event, since a consumer
// may use it as a redraw signal). A no-op once the session has exited.
func (s *Session) Resize(cols, rows int) error {
	if err := validateSize(cols, rows); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return nil
	}
	s.cols, s.rows = cols, rows
	s.vt.Resize(cols, rows)
	t := s.elapsedLocked()
	s.bus.Publish(event.Event{Kind: event.Resize, Time: t, Cols: cols, Rows: rows})
	return nil
}

// Mark publishes a Marker event carrying an arbitrary annotation label.
// A no-op once the session has exited.
func (s *Session) Mark(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return
	}
	t := s.elapsedLocked()
	s.bus.Publish(event.Event{Kind: event.Marker, Time: t, Label: label})
}

// Exit publishes the terminal Exit event and closes the broadcast bus.
// Idempotent: only the first call has any effect, so a doubly reported
// exit (e.g. from both a Wait() goroutine and a forced shutdown path)
// is harmless.
func (s *Session) Exit(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return
	}
	s.exited = true
	s.exitStatus = status
	t := s.elapsedLocked()
	s.bus.Publish(event.Event{Kind: event.Exit, Time: t, Status: status})
	s.bus.Close()
}

// SnapshotRequest builds a Snapshot event reflecting the VT's current
// state. This is a control-plane reply: it is returned directly to the
// requester and never published to the bus or recorded to tape.
func (s *Session) SnapshotRequest() event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return event.Event{
		Kind: event.Snapshot,
		Cols: s.cols,
		Rows: s.rows,
		Seq:  s.vt.Dump(),
		Text: s.vt.TextView(),
	}
}

// Subscribe atomically snapshots the VT's current state into an Init
// event and registers a bus subscriber positioned to receive every
// event published after the snapshot was taken. Because both steps run
// under s.mu, no event can be published, and thus no mutation can be
// lost or double-delivered, between the snapshot and the subscription.
func (s *Session) Subscribe() (event.Event, *broadcast.Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	init := event.Event{
		Kind: event.Init,
		Time: s.elapsedLocked(),
		Cols: s.cols,
		Rows: s.rows,
		Pid:  s.pid,
		Seq:  s.vt.Dump(),
		Text: s.vt.TextView(),
	}
	return init, s.bus.Subscribe()
}
