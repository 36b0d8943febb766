// Package control implements the stdin command reader and stdout event
// printer that make up the standard-I/O half of the control plane
// (§6). Modeled on the request/response envelope style of h2's
// internal/message package (one JSON-decodable struct per wire shape,
// dispatch on a discriminator field), adapted from that package's
// inter-agent message delivery to the session's line-oriented command
// protocol.
package control

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"headterm/internal/event"
	"headterm/internal/keys"
	"headterm/internal/session"
)

// command is the raw shape of one line of the stdin protocol: every
// command carries a "type" discriminator plus whichever fields that
// type defines.
type command struct {
	Type    string   `json:"type"`
	Keys    []string `json:"keys"`
	Payload string   `json:"payload"`
	Cols    int      `json:"cols"`
	Rows    int      `json:"rows"`
	Label   string   `json:"label"`
}

// PTYWriter sends resolved bytes to the child's stdin.
type PTYWriter func(data []byte) error

// RunCommandReader reads line-oriented JSON commands from r and applies
// them to sess until r is exhausted or ctx is cancelled. sendKeys and
// input commands write resolved bytes to the child PTY via write; a
// takeSnapshot command invokes onSnapshot (if non-nil) with the
// resulting Snapshot event so the caller can print it on the control-
// reply path (§6: snapshots are a reply, never a broadcast).
func RunCommandReader(ctx context.Context, r io.Reader, sess *session.Session, write PTYWriter, onSnapshot func(event.Event)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var cmd command
		if err := json.Unmarshal(line, &cmd); err != nil {
			log.Printf("control: malformed command: %v", err)
			continue
		}
		if err := dispatch(cmd, sess, write, onSnapshot); err != nil {
			log.Printf("control: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("control: stdin read error: %v", err)
	}
}

func dispatch(cmd command, sess *session.Session, write PTYWriter, onSnapshot func(event.Event)) error {
	switch cmd.Type {
	case "sendKeys":
		data := keys.Resolve(cmd.Keys)
		return write(data)
	case "input":
		data := []byte(cmd.Payload)
		sess.Input(data)
		return write(data)
	case "resize":
		return sess.Resize(cmd.Cols, cmd.Rows)
	case "mark":
		sess.Mark(cmd.Label)
		return nil
	case "takeSnapshot":
		if onSnapshot != nil {
			onSnapshot(sess.SnapshotRequest())
		}
		return nil
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}
