// Package config handles the wrapper's small persisted-state surface:
// the asciinema install-id file, theme parsing (explicit hex values or
// auto-detection from the attached terminal), and the CLI value parsers
// for --size/--listen/--subscribe. Modeled on h2's internal/config
// package (a small os.UserHomeDir-rooted directory, read-or-create
// semantics, validate-on-load), scaled down to this system's single
// UUID file instead of a YAML document, since nothing else here is
// persisted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultInstallIDPath is "~/.config/asciinema/install-id", the default
// location §6 names for the persisted install identifier.
func DefaultInstallIDPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "asciinema", "install-id"), nil
}

// LoadOrCreateInstallID reads the UUID at path, creating both the
// directory and a freshly generated UUID file if none exists yet.
func LoadOrCreateInstallID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id == "" {
			return "", fmt.Errorf("install-id file %s is empty", path)
		}
		return id, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read install-id file %s: %w", path, err)
	}

	id := uuid.New().String()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create install-id directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write install-id file %s: %w", path, err)
	}
	return id, nil
}
