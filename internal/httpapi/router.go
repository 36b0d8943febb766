// Package httpapi exposes a session over HTTP: the three websocket
// endpoints named in §6 and a small embedded live-preview page. Routing
// uses Go 1.22's net/http.ServeMux method-pattern syntax
// ("GET /ws/events"), the style shown in ehrlich-b-wingthing's
// internal/direct/server.go; the websocket accept/negotiate/serve loop
// itself is grounded on that same example's relay package (one task per
// connection, no shared per-connection mutable state outside what the
// broadcast bus already serializes).
package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"headterm/internal/alis"
	"headterm/internal/broadcast"
	"headterm/internal/config"
	"headterm/internal/control"
	"headterm/internal/event"
	"headterm/internal/recorder"
	"headterm/internal/session"
	"headterm/internal/wsconn"
)

//go:embed static/preview.html
var staticFS embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var alisUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	Subprotocols:    []string{"v1.alis"},
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewRouter builds the HTTP handler for one session: /ws/events (raw
// JSON per event), /ws/alis (asciicast v3 text streamer), /ws/alis-v1
// (binary ALiS v1), and a static live-preview page at "/".
func NewRouter(sess *session.Session, theme *alis.Theme) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/events", handleEvents(sess))
	mux.HandleFunc("GET /ws/alis", handleAlisText(sess))
	mux.HandleFunc("GET /ws/alis-v1", handleAlisV1(sess, theme))
	mux.HandleFunc("GET /", handlePreview)
	return mux
}

func handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := staticFS.ReadFile("static/preview.html")
	if err != nil {
		http.Error(w, "preview unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// wsWriter adapts a wsconn.Conn to io.Writer so control.Printer (built
// for stdout) can drive a websocket text stream unmodified; each Write
// call is sent as one text frame with its trailing newline trimmed.
type wsWriter struct{ conn *wsconn.Conn }

func (w wsWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteText(bytes.TrimRight(p, "\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

func handleEvents(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("httpapi: /ws/events upgrade failed: %v", err)
			return
		}
		conn := wsconn.New(wsConn)
		defer conn.Close()

		types := config.ParseSubscribe(r.URL.Query().Get("sub"))
		init, sub := sess.Subscribe()

		printer := control.NewPrinter(wsWriter{conn})
		if types == nil || types[init.Kind.String()] {
			if err := printer.Emit(init); err != nil {
				return
			}
		}
		control.RunPrinter(r.Context(), sub, printer, types)
	}
}

func handleAlisText(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("httpapi: /ws/alis upgrade failed: %v", err)
			return
		}
		conn := wsconn.New(wsConn)
		defer conn.Close()

		init, sub := sess.Subscribe()
		headerLine, err := recorder.EncodeHeader(recorder.Header{
			Term: recorder.TermInfo{Cols: init.Cols, Rows: init.Rows},
		})
		if err != nil {
			log.Printf("httpapi: /ws/alis encode header: %v", err)
			return
		}
		if err := conn.WriteText(bytes.TrimRight(headerLine, "\n")); err != nil {
			return
		}

		ctx := r.Context()
		prevTime := init.Time
		for {
			ev, skipped, err := sub.Recv(ctx)
			if err != nil && !errors.Is(err, broadcast.ErrLagged) {
				return
			}
			if skipped > 0 {
				log.Printf("httpapi: /ws/alis lagged, skipped %d events", skipped)
				continue
			}
			if ev.Kind == event.Init || ev.Kind == event.Snapshot {
				continue
			}
			line, newPrev, err := recorder.EncodeEvent(ev, prevTime, 0)
			if err != nil {
				continue
			}
			prevTime = newPrev
			if err := conn.WriteText(bytes.TrimRight(line, "\n")); err != nil {
				return
			}
		}
	}
}

func handleAlisV1(sess *session.Session, theme *alis.Theme) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := alisUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("httpapi: /ws/alis-v1 upgrade failed: %v", err)
			return
		}
		conn := wsconn.New(wsConn)
		defer conn.Close()

		if err := alis.RunLocal(r.Context(), conn, sess, theme, false); err != nil {
			log.Printf("httpapi: /ws/alis-v1 stream ended: %v", err)
		}
	}
}
