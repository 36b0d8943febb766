// Package keys resolves the sendKeys symbolic key grammar (§6) to the
// byte sequences written to the child PTY. No pack example supplies a
// keymap — this is new, hand-written code — and is kept deliberately
// small, matching the specification's framing of the control surface as
// "thin, specified only at the interface."
package keys

import "strings"

// namedSequences maps a bare symbolic key name to the bytes a terminal
// sends for it, using the conventional xterm/VT100 encodings.
var namedSequences = map[string]string{
	"Enter":     "\r",
	"Tab":       "\t",
	"Escape":    "\x1b",
	"Backspace": "\x7f",
	"Up":        "\x1b[A",
	"Down":      "\x1b[B",
	"Right":     "\x1b[C",
	"Left":      "\x1b[D",
	"Home":      "\x1b[H",
	"End":       "\x1b[F",
	"PageUp":    "\x1b[5~",
	"PageDown":  "\x1b[6~",
	"Insert":    "\x1b[2~",
	"Delete":    "\x1b[3~",
	"F1":        "\x1bOP",
	"F2":        "\x1bOQ",
	"F3":        "\x1bOR",
	"F4":        "\x1bOS",
	"F5":        "\x1b[15~",
	"F6":        "\x1b[17~",
	"F7":        "\x1b[18~",
	"F8":        "\x1b[19~",
	"F9":        "\x1b[20~",
	"F10":       "\x1b[21~",
	"F11":       "\x1b[23~",
	"F12":       "\x1b[24~",
}

// arrowFinal gives the CSI final byte for keys that support a modified
// (Ctrl/Shift/Alt) xterm encoding ("\x1b[1;<mod><final>").
var arrowFinal = map[string]byte{
	"Up": 'A', "Down": 'B', "Right": 'C', "Left": 'D', "Home": 'H', "End": 'F',
}

type modifier int

const (
	modCtrl modifier = iota
	modShift
	modAlt
)

// Resolve translates the sendKeys command's "keys" array into the bytes
// to write to the child's PTY. Each element is either a symbolic key
// name, a modifier-prefixed key (`^`, `C-`, `S-`, `A-`), or a literal
// text fragment; unresolved strings pass through verbatim.
func Resolve(keyList []string) []byte {
	var out []byte
	for _, k := range keyList {
		out = append(out, resolveOne(k)...)
	}
	return out
}

func resolveOne(k string) []byte {
	name, mod, hasMod := splitModifier(k)
	if !hasMod {
		if seq, ok := namedSequences[k]; ok {
			return []byte(seq)
		}
		return []byte(k)
	}

	if mod == modCtrl && len(name) == 1 {
		c := name[0] &^ 0x20 // fold letters to uppercase
		if c >= 'A' && c <= '_' {
			return []byte{c & 0x1F}
		}
	}

	if final, ok := arrowFinal[name]; ok {
		return []byte("\x1b[1;" + modParam(mod) + string(final))
	}
	if seq, ok := namedSequences[name]; ok {
		return []byte(seq)
	}
	// Modifier prefix on an unrecognized base key: pass the whole token
	// through verbatim rather than guessing at an encoding.
	return []byte(k)
}

func splitModifier(k string) (name string, mod modifier, ok bool) {
	switch {
	case strings.HasPrefix(k, "C-"):
		return k[2:], modCtrl, true
	case strings.HasPrefix(k, "S-"):
		return k[2:], modShift, true
	case strings.HasPrefix(k, "A-"):
		return k[2:], modAlt, true
	case strings.HasPrefix(k, "^") && len(k) > 1:
		return k[1:], modCtrl, true
	}
	return "", 0, false
}

func modParam(m modifier) string {
	switch m {
	case modShift:
		return "2"
	case modAlt:
		return "3"
	case modCtrl:
		return "5"
	default:
		return "1"
	}
}
