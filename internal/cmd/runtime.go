package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"headterm/internal/alis"
	"headterm/internal/config"
	"headterm/internal/control"
	"headterm/internal/event"
	"headterm/internal/httpapi"
	"headterm/internal/ptydriver"
	"headterm/internal/session"
)

// ptyWriteTimeout bounds how long a stdin-driven write to the child's PTY
// may block before a hung child is reported rather than wedging the
// command reader goroutine forever.
const ptyWriteTimeout = 5 * time.Second

// runtime bundles a spawned child, the session core it feeds, and the
// goroutines every CLI subcommand needs regardless of whether it records,
// streams, or serves HTTP.
type runtime struct {
	driver *ptydriver.Driver
	sess   *session.Session
	exited chan int
}

// spawn starts command/args inside a PTY sized cols x rows and wires its
// output into a new session core, but does not yet start reading the
// PTY or waiting on the child — the kernel buffers the child's early
// output until something reads it, so the caller has a window to attach
// every consumer's subscription before calling start and letting output
// flow. Starting the read pump any earlier would let a fast-writing
// child (e.g. a shell's initial prompt) publish Output events before a
// not-yet-subscribed recorder's cursor is positioned to receive them,
// permanently dropping them from its recording.
func spawn(command string, args []string, cols, rows int, captureInput bool, extraEnv map[string]string) (*runtime, error) {
	driver, err := ptydriver.Start(command, args, cols, rows, extraEnv)
	if err != nil {
		return nil, fmt.Errorf("spawn child: %w", err)
	}

	sess, err := session.New(driver.Pid(), cols, rows, captureInput)
	if err != nil {
		driver.Kill()
		return nil, err
	}

	return &runtime{driver: driver, sess: sess, exited: make(chan int, 1)}, nil
}

// start launches the PTY read pump and the exit waiter. Callers must
// subscribe every consumer (recorder, stdout printer, HTTP router) before
// calling start, or those consumers can miss early child output.
func (rt *runtime) start() {
	go rt.driver.ReadLoop(rt.sess.Output)
	go func() {
		status, err := rt.driver.Wait()
		if err != nil {
			status = -1
		}
		rt.sess.Exit(status)
		rt.exited <- status
	}()
}

// waitExit blocks until the child has terminated and returns its exit
// status. Safe to call once; the channel is buffered so the exit-reporting
// goroutine never blocks on a caller that never waits.
func (rt *runtime) waitExit() int {
	return <-rt.exited
}

// ptyWriter adapts the Driver's timed Write into the control package's
// PTYWriter signature used by sendKeys/input commands.
func (rt *runtime) ptyWriter() control.PTYWriter {
	return func(data []byte) error {
		_, err := rt.driver.Write(data, ptyWriteTimeout)
		return err
	}
}

// runCommandReader reads stdin commands for the lifetime of ctx, printing
// takeSnapshot replies through printer (which may be nil, in which case
// replies are silently dropped — a caller that never sends takeSnapshot
// need not set one up).
func (rt *runtime) runCommandReader(ctx context.Context, printer *control.Printer) {
	var onSnapshot func(event.Event)
	if printer != nil {
		onSnapshot = func(ev event.Event) {
			if err := printer.Emit(ev); err != nil {
				return
			}
		}
	}
	control.RunCommandReader(ctx, os.Stdin, rt.sess, rt.ptyWriter(), onSnapshot)
}

// maybeServeHTTP starts the websocket/preview server on listenFlag (as
// parsed by config.ParseListen) when listenChanged is true, i.e. --listen
// was supplied on the command line.
func (rt *runtime) maybeServeHTTP(listenChanged bool, listenFlag string, theme *alis.Theme) {
	if !listenChanged {
		return
	}
	addr := config.ParseListen(listenFlag)
	mux := httpapi.NewRouter(rt.sess, theme)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			fmt.Fprintf(os.Stderr, "headterm: http server on %s: %v\n", addr, err)
		}
	}()
}
