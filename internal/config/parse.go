package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultCols, DefaultRows are used when --size is not given.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// ParseSize parses the top-level --size flag's "COLSxROWS" value.
func ParseSize(s string) (cols, rows int, err error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --size %q: want COLSxROWS", s)
	}
	cols, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --size %q: bad cols: %w", s, err)
	}
	rows, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --size %q: bad rows: %w", s, err)
	}
	return cols, rows, nil
}

// DefaultListenAddr is used when --listen is given with no value.
const DefaultListenAddr = "127.0.0.1:7681"

// ParseListen normalizes the top-level --listen flag's "[ADDR[:PORT]]"
// value. An empty string means "use the default"; a bare port (":N" or
// "N") binds all interfaces on that port; anything containing a colon is
// used verbatim as a host:port pair.
func ParseListen(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultListenAddr
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}

// ParseSubscribe splits the --subscribe / ?sub= comma-separated list of
// event kind names into a lookup set. An empty string means "subscribe
// to everything" and is represented as a nil map.
func ParseSubscribe(s string) map[string]bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out[part] = true
		}
	}
	return out
}

// ParseCaptureEnv resolves the --capture-env NAMES flag (a comma
// separated list of environment variable names) into the name→value
// map the recorder header's env field expects, reading the named
// variables from the process environment via lookup.
func ParseCaptureEnv(names string, lookup func(string) (string, bool)) map[string]string {
	names = strings.TrimSpace(names)
	if names == "" {
		return nil
	}
	out := make(map[string]string)
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if v, ok := lookup(name); ok {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
