package alis

import (
	"context"
	"errors"
	"log"

	"headterm/internal/broadcast"
	"headterm/internal/event"
	"headterm/internal/session"
	"headterm/internal/wsconn"
)

// RunLocal drives one /ws/alis-v1 connection: it subscribes to sess,
// sends the magic preamble and an Init built from the subscribe
// snapshot, then forwards every subsequent broadcast event as a binary
// ALiS v1 message until the session exits or the connection fails. On
// lag it skips silently and keeps streaming, per §4.4 — a consumer that
// cares about the gap reconnects for a fresh Init. keepOpenAfterExit
// controls whether an EOT follows Exit, leaving the transport open for
// a future session, instead of returning immediately so the caller
// closes the socket.
func RunLocal(ctx context.Context, conn *wsconn.Conn, sess *session.Session, theme *Theme, keepOpenAfterExit bool) error {
	init, sub := sess.Subscribe()
	return runALiSStream(ctx, conn, init, sub, theme, keepOpenAfterExit)
}

// runALiSStream is RunLocal's wire loop, taking an already-established
// (init, sub) pair so a caller that must subscribe before starting the
// PTY read pump (e.g. the remote streamer at process startup) can do so
// synchronously instead of racing this function's own Subscribe call.
func runALiSStream(ctx context.Context, conn *wsconn.Conn, init event.Event, sub *broadcast.Subscriber, theme *Theme, keepOpenAfterExit bool) error {
	if err := conn.WriteBinary(Magic[:]); err != nil {
		return err
	}

	var stream Stream
	initMsg := stream.Init(0, init.Cols, init.Rows, theme, init.Seq)
	// The first event's rel-time is measured from the Init snapshot.
	stream.lastTime = init
	if err := conn.WriteBinary(initMsg); err != nil {
		return err
	}

	for {
		ev, skipped, err := sub.Recv(ctx)
		if err != nil && !errors.Is(err, broadcast.ErrLagged) {
			if errors.Is(err, broadcast.ErrClosed) {
				return nil
			}
			return err
		}
		if skipped > 0 {
			log.Printf("alis: local stream lagged, skipped %d events", skipped)
			continue
		}
		if ev.Kind == event.Init || ev.Kind == event.Snapshot {
			continue
		}

		msg, err := stream.Encode(ev)
		if err != nil {
			log.Printf("alis: %v", err)
			continue
		}
		if err := conn.WriteBinary(msg); err != nil {
			return err
		}

		if ev.Kind == event.Exit {
			if keepOpenAfterExit {
				if err := conn.WriteBinary(stream.EOT()); err != nil {
					return err
				}
				continue
			}
			return nil
		}
	}
}
