package alis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"headterm/internal/broadcast"
	"headterm/internal/event"
	"headterm/internal/recorder"
	"headterm/internal/wsconn"
)

// Protocol selects the wire format negotiated with a remote
// asciinema-compatible server.
type Protocol string

const (
	ProtocolALiS      Protocol = "v1.alis"
	ProtocolAsciicast Protocol = "v3.asciicast"
)

// RemoteConfig configures one outbound connection to a remote server.
type RemoteConfig struct {
	ServerURL     string
	InstallID     string
	Protocol      Protocol
	Title         string
	Visibility    string
	IdleTimeLimit float64
	Theme         *Theme
}

// DialRemote opens the websocket connection to cfg.ServerURL, announcing
// the configured subprotocol and supplying the pre-issued install
// identifier and requested visibility. The server-side transport
// mechanism for both is implementation-defined (§4.4); request headers
// are the conventional choice for an HTTP-upgraded connection.
func DialRemote(cfg RemoteConfig) (*wsconn.Conn, error) {
	header := http.Header{}
	header.Set("X-Asciinema-Install-Id", cfg.InstallID)
	if cfg.Visibility != "" {
		header.Set("X-Asciinema-Visibility", cfg.Visibility)
	}

	dialer := websocket.Dialer{
		Subprotocols:     []string{string(cfg.Protocol)},
		HandshakeTimeout: 10 * time.Second,
	}
	ws, resp, err := dialer.Dial(cfg.ServerURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial remote server: %w (status %s)", err, resp.Status)
		}
		return nil, fmt.Errorf("dial remote server: %w", err)
	}
	return wsconn.New(ws), nil
}

// RunRemote drives the single program-lifetime connection to a remote
// server: sends the negotiated protocol's preamble using the supplied
// (init, sub) subscription, then forwards events until the session exits
// or the transport fails. init and sub must come from a Subscribe call
// the caller made before starting the session's PTY read pump, so no
// child output produced between subscribe and the first Recv is lost;
// RunRemote itself never calls Session.Subscribe, precisely to keep that
// ordering under the caller's control. No reconnection is attempted; per
// §4.4 the caller restarts the program if this returns an error.
func RunRemote(ctx context.Context, conn *wsconn.Conn, init event.Event, sub *broadcast.Subscriber, cfg RemoteConfig) error {
	switch cfg.Protocol {
	case ProtocolALiS:
		return runALiSStream(ctx, conn, init, sub, cfg.Theme, false)
	case ProtocolAsciicast:
		return runRemoteAsciicast(ctx, conn, init, sub, cfg)
	default:
		return fmt.Errorf("remote streamer: unsupported protocol %q", cfg.Protocol)
	}
}

func runRemoteAsciicast(ctx context.Context, conn *wsconn.Conn, init event.Event, sub *broadcast.Subscriber, cfg RemoteConfig) error {
	header := recorder.Header{
		Term:          recorder.TermInfo{Cols: init.Cols, Rows: init.Rows},
		Title:         cfg.Title,
		IdleTimeLimit: cfg.IdleTimeLimit,
	}
	headerLine, err := recorder.EncodeHeader(header)
	if err != nil {
		return err
	}
	if err := conn.WriteText(headerLine); err != nil {
		return err
	}

	prevTime := init.Time
	for {
		ev, skipped, err := sub.Recv(ctx)
		if err != nil && !errors.Is(err, broadcast.ErrLagged) {
			if errors.Is(err, broadcast.ErrClosed) {
				return nil
			}
			return err
		}
		if skipped > 0 {
			log.Printf("alis: remote asciicast stream lagged, skipped %d events", skipped)
			continue
		}
		if ev.Kind == event.Init || ev.Kind == event.Snapshot {
			continue
		}

		line, newPrev, err := recorder.EncodeEvent(ev, prevTime, cfg.IdleTimeLimit)
		if err != nil {
			log.Printf("alis: %v", err)
			continue
		}
		prevTime = newPrev
		if err := conn.WriteText(line); err != nil {
			return err
		}
		if ev.Kind == event.Exit {
			return nil
		}
	}
}
