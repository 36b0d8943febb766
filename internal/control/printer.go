package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"headterm/internal/broadcast"
	"headterm/internal/event"
)

// Printer writes one JSON object per event to an underlying writer,
// following the §6 stdout shape: {"type": ..., "data": ...}.
type Printer struct {
	w  io.Writer
	mu sync.Mutex
}

// NewPrinter wraps w (typically os.Stdout) for event printing.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Emit writes one event as a single JSON line. Safe for concurrent use.
func (p *Printer) Emit(ev event.Event) error {
	data, err := dataFor(ev)
	if err != nil {
		return err
	}
	line, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: ev.Kind.String(), Data: data})
	if err != nil {
		return fmt.Errorf("control: encode stdout event: %w", err)
	}
	line = append(line, '\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = p.w.Write(line)
	return err
}

type initData struct {
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
	Seq  string `json:"seq"`
	Text string `json:"text"`
	Pid  int    `json:"pid,omitempty"`
}

type outputData struct {
	Seq string `json:"seq"`
}

type inputData struct {
	Data string `json:"data"`
}

type resizeData struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

type markerData struct {
	Label string `json:"label"`
}

type exitData struct {
	Status int `json:"status"`
}

func dataFor(ev event.Event) (any, error) {
	switch ev.Kind {
	case event.Init, event.Snapshot:
		return initData{Cols: ev.Cols, Rows: ev.Rows, Seq: ev.Seq, Text: ev.Text, Pid: ev.Pid}, nil
	case event.Output:
		return outputData{Seq: string(ev.Data)}, nil
	case event.Input:
		return inputData{Data: string(ev.Data)}, nil
	case event.Resize:
		return resizeData{Cols: ev.Cols, Rows: ev.Rows}, nil
	case event.Marker:
		return markerData{Label: ev.Label}, nil
	case event.Exit:
		return exitData{Status: ev.Status}, nil
	default:
		return nil, fmt.Errorf("control: %s has no stdout data shape", ev.Kind)
	}
}

// RunPrinter drains sub, printing every event whose wire name is in
// types (or every event, if types is nil) until the bus closes, a write
// fails, or ctx is cancelled. A lag is logged and printing continues
// with the oldest event still buffered.
func RunPrinter(ctx context.Context, sub *broadcast.Subscriber, p *Printer, types map[string]bool) {
	for {
		ev, skipped, err := sub.Recv(ctx)
		if err != nil && !errors.Is(err, broadcast.ErrLagged) {
			if !errors.Is(err, broadcast.ErrClosed) {
				log.Printf("control: printer subscriber error: %v", err)
			}
			return
		}
		if skipped > 0 {
			log.Printf("control: printer lagged, skipped %d events", skipped)
			continue
		}
		if types != nil && !types[ev.Kind.String()] {
			continue
		}
		if err := p.Emit(ev); err != nil {
			log.Printf("control: stdout write failed: %v", err)
			return
		}
	}
}
