package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseHexRGB(t *testing.T) {
	rgb, err := ParseHexRGB("#1a2b3c")
	if err != nil {
		t.Fatal(err)
	}
	if rgb.R != 0x1a || rgb.G != 0x2b || rgb.B != 0x3c {
		t.Fatalf("unexpected rgb: %+v", rgb)
	}
	if _, err := ParseHexRGB("not-a-color"); err == nil {
		t.Fatal("expected error for invalid color")
	}
}

func TestParseSize(t *testing.T) {
	cols, rows, err := ParseSize("100x40")
	if err != nil || cols != 100 || rows != 40 {
		t.Fatalf("ParseSize(100x40) = %d,%d,%v", cols, rows, err)
	}
	if _, _, err := ParseSize("bogus"); err == nil {
		t.Fatal("expected error for malformed size")
	}
}

func TestParseListen(t *testing.T) {
	if got := ParseListen(""); got != DefaultListenAddr {
		t.Fatalf("ParseListen(\"\") = %q, want default", got)
	}
	if got := ParseListen("9000"); got != ":9000" {
		t.Fatalf("ParseListen(9000) = %q", got)
	}
	if got := ParseListen("0.0.0.0:9000"); got != "0.0.0.0:9000" {
		t.Fatalf("ParseListen passthrough = %q", got)
	}
}

func TestParseSubscribe(t *testing.T) {
	if ParseSubscribe("") != nil {
		t.Fatal("expected nil for empty subscribe list")
	}
	got := ParseSubscribe("output, exit")
	if !got["output"] || !got["exit"] || len(got) != 2 {
		t.Fatalf("unexpected subscribe set: %v", got)
	}
}

func TestLoadOrCreateInstallID_CreatesThenReuses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asciinema", "install-id")

	id1, err := LoadOrCreateInstallID(path)
	if err != nil {
		t.Fatal(err)
	}
	if id1 == "" {
		t.Fatal("expected a generated id")
	}

	id2, err := LoadOrCreateInstallID(path)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("expected stable id across calls, got %q then %q", id1, id2)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected install-id file to exist: %v", err)
	}
}
