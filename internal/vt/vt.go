// Package vt wraps the virtual-terminal buffer that absorbs child PTY
// output and reproduces the visible terminal state on demand.
package vt

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/vito/midterm"
)

// VT owns a midterm terminal buffer and the dimensions it was created
// with. All mutation goes through Write/Resize so callers never touch
// the underlying midterm.Terminal directly.
type VT struct {
	mu   sync.Mutex
	term *midterm.Terminal
	cols int
	rows int
}

// New creates a VT of the given dimensions, blank until the first Write.
func New(cols, rows int) *VT {
	return &VT{
		term: midterm.NewTerminal(rows, cols),
		cols: cols,
		rows: rows,
	}
}

// Write feeds raw child output through the VT parser.
func (v *VT) Write(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.term.Write(data)
}

// Resize changes the VT's dimensions.
func (v *VT) Resize(cols, rows int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cols = cols
	v.rows = rows
	v.term.Resize(rows, cols)
}

// Size returns the current dimensions.
func (v *VT) Size() (cols, rows int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cols, v.rows
}

// Dump renders a self-contained escape-sequence string that reproduces
// the VT's current visible state when replayed on a blank terminal of
// the same dimensions. Grounded on the region-rendering loop in h2's
// internal/overlay/render.go, generalized from a live re-render (which
// writes straight to an io.Writer for an attached client) into a
// standalone, position-independent sequence a late-joining consumer can
// apply cold.
func (v *VT) Dump() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString("\033[?25l\033[H\033[2J")
	for row := 0; row < v.rows; row++ {
		if row > 0 {
			buf.WriteString("\r\n")
		}
		v.renderLineLocked(&buf, row)
	}
	fmt.Fprintf(&buf, "\033[%d;%dH\033[?25h", v.term.Cursor.Y+1, v.term.Cursor.X+1)
	return buf.String()
}

// renderLineLocked writes one row's content plus formatting to buf.
// Caller must hold v.mu.
func (v *VT) renderLineLocked(buf *bytes.Buffer, row int) {
	if row >= len(v.term.Content) {
		return
	}
	line := v.term.Content[row]
	var pos int
	var lastFormat midterm.Format
	for region := range v.term.Format.Regions(row) {
		f := region.F
		if f != lastFormat {
			buf.WriteString("\033[0m")
			buf.WriteString(f.Render())
			lastFormat = f
		}
		end := pos + region.Size

		if pos < len(line) {
			contentEnd := end
			if contentEnd > len(line) {
				contentEnd = len(line)
			}
			buf.WriteString(string(line[pos:contentEnd]))
		}

		padStart := len(line)
		if padStart < pos {
			padStart = pos
		}
		if padStart < end {
			buf.WriteString(strings.Repeat(" ", end-padStart))
		}

		pos = end
	}
	buf.WriteString("\033[0m")
}

// TextView renders the VT's visible content as a plain multi-line
// string, with no escape sequences and trailing whitespace trimmed from
// each line.
func (v *VT) TextView() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	lines := make([]string, v.rows)
	for row := 0; row < v.rows && row < len(v.term.Content); row++ {
		lines[row] = strings.TrimRight(string(v.term.Content[row]), " ")
	}
	return strings.Join(lines, "\n")
}
