// Package ptydriver spawns a child process attached to a pseudo-terminal
// and exposes its output as a stream of byte chunks, its input as a byte
// sink, and its exit as a terminal status. Split out of h2's combined
// VT+PTY struct (internal/session/virtualterminal/vt.go) into a
// standalone component so the VT model and the PTY driver can be owned
// and tested independently, matching the two-component split in the
// system overview.
package ptydriver

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// ErrWriteTimeout is returned by Write when the child is not draining its
// stdin and the kernel PTY buffer fills up.
var ErrWriteTimeout = fmt.Errorf("pty write timed out")

// Driver owns the lifetime of one child process running inside a PTY.
type Driver struct {
	cmd *exec.Cmd
	ptm *os.File
}

// Start spawns command with args inside a PTY sized cols x rows. extraEnv
// entries are merged into (and override) the inherited environment.
func Start(command string, args []string, cols, rows int, extraEnv map[string]string) (*Driver, error) {
	cmd := exec.Command(command, args...)
	if len(extraEnv) > 0 {
		env := make([]string, 0, len(os.Environ())+len(extraEnv))
		for _, e := range os.Environ() {
			key := e
			if idx := strings.Index(e, "="); idx >= 0 {
				key = e[:idx]
			}
			if _, override := extraEnv[key]; !override {
				env = append(env, e)
			}
		}
		for k, v := range extraEnv {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}
	return &Driver{cmd: cmd, ptm: ptm}, nil
}

// Pid returns the child process id.
func (d *Driver) Pid() int {
	if d.cmd.Process == nil {
		return 0
	}
	return d.cmd.Process.Pid
}

// ReadLoop reads output chunks from the PTY master until it closes,
// invoking onChunk for each non-empty read. Meant to run in its own
// goroutine; returns when the PTY is closed or the child exits.
func (d *Driver) ReadLoop(onChunk func([]byte)) {
	buf := make([]byte, 4096)
	for {
		n, err := d.ptm.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onChunk(chunk)
		}
		if err != nil {
			return
		}
	}
}

// Write sends bytes to the child's stdin with a timeout, running the
// write in a goroutine so a hung child (not reading its stdin) cannot
// block the caller indefinitely once the kernel PTY buffer fills.
func (d *Driver) Write(p []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := d.ptm.Write(p)
		ch <- result{n, err}
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}

// Resize updates the PTY's window size.
func (d *Driver) Resize(cols, rows int) error {
	return pty.Setsize(d.ptm, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// Wait blocks until the child exits and returns its exit status (the
// process's exit code, or 128+signal for a signal death, matching POSIX
// shell convention). status is signed to accommodate both.
func (d *Driver) Wait() (status int, err error) {
	waitErr := d.cmd.Wait()
	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if ok := asExitError(waitErr, &exitErr); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, waitErr
}

// Kill sends SIGKILL to the child process.
func (d *Driver) Kill() {
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
}

// Close closes the PTY master, unblocking any pending ReadLoop.
func (d *Driver) Close() error {
	return d.ptm.Close()
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
