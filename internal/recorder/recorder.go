package recorder

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofrs/flock"

	"headterm/internal/broadcast"
	"headterm/internal/event"
)

// Config controls how a Recorder writes a new asciicast v3 file.
type Config struct {
	Path          string
	Header        Header
	IdleTimeLimit float64
	Append        bool
}

// Recorder subscribes to a session's broadcast bus and appends every
// tape-worthy event to an asciicast v3 NDJSON file until the session
// exits or the recorder's context is cancelled. Buffered and
// flushed once per event, matching the flush-per-line discipline of
// h2's eventstore.
type Recorder struct {
	cfg    Config
	file   *os.File
	lock   *flock.Flock
	writer *bufio.Writer
}

// Open creates (or, with Append, reopens) the recording file, acquiring
// an advisory lock so two headterm processes cannot record to the same
// path concurrently and corrupt each other's output.
func Open(cfg Config) (*Recorder, error) {
	lock := flock.New(cfg.Path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock recording %s: %w", cfg.Path, err)
	}
	if !locked {
		return nil, fmt.Errorf("recording %s is already being written by another process", cfg.Path)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if cfg.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(cfg.Path, flags, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open recording %s: %w", cfg.Path, err)
	}

	r := &Recorder{cfg: cfg, file: f, lock: lock, writer: bufio.NewWriter(f)}

	writeHeader := !cfg.Append
	if cfg.Append {
		if info, statErr := f.Stat(); statErr == nil && info.Size() == 0 {
			writeHeader = true
		}
	}
	if writeHeader {
		header := cfg.Header
		if header.Timestamp == 0 {
			// Wall-clock Unix seconds, sampled once here at header write;
			// never conflated with the monotonic per-event Time (§9).
			header.Timestamp = time.Now().Unix()
		}
		line, err := EncodeHeader(header)
		if err != nil {
			r.Close()
			return nil, err
		}
		if _, err := r.writer.Write(line); err != nil {
			r.Close()
			return nil, fmt.Errorf("write recording header: %w", err)
		}
		if err := r.writer.Flush(); err != nil {
			r.Close()
			return nil, fmt.Errorf("flush recording header: %w", err)
		}
	}

	return r, nil
}

// Run reads events from sub until it closes or ctx is cancelled,
// appending each as an asciicast v3 body line. A lag is logged and
// recording continues past the gap. The elapsed
// clock used for interval calculation resets to zero on the first event
// written, so an appended recording's intervals are always relative to
// where this Run call started rather than to the original session's
// start time.
func (r *Recorder) Run(ctx context.Context, sub *broadcast.Subscriber) {
	var prevTime time.Duration
	first := true
	for {
		ev, skipped, err := sub.Recv(ctx)
		if err != nil && err != broadcast.ErrLagged {
			if err != broadcast.ErrClosed && err != context.Canceled && err != context.DeadlineExceeded {
				log.Printf("recorder: subscriber error, stopping: %v", err)
			}
			return
		}
		if skipped > 0 {
			log.Printf("recorder: skipped %d events, recording has a gap", skipped)
		}
		if ev.Kind == event.Init || ev.Kind == event.Snapshot {
			continue
		}
		if first {
			prevTime = ev.Time
			first = false
		}
		line, newPrev, err := EncodeEvent(ev, prevTime, r.cfg.IdleTimeLimit)
		if err != nil {
			log.Printf("recorder: %v", err)
			continue
		}
		prevTime = newPrev
		if _, err := r.writer.Write(line); err != nil {
			log.Printf("recorder: write failed, stopping recording: %v", err)
			return
		}
		if err := r.writer.Flush(); err != nil {
			log.Printf("recorder: flush failed, stopping recording: %v", err)
			return
		}
	}
}

// Close flushes and closes the recording file and releases its lock.
func (r *Recorder) Close() error {
	var errs []error
	if r.writer != nil {
		if err := r.writer.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.lock != nil {
		if err := r.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
		_ = os.Remove(r.cfg.Path + ".lock")
	}
	if len(errs) > 0 {
		return fmt.Errorf("close recorder: %v", errs)
	}
	return nil
}
