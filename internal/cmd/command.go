package cmd

import "os"

// resolveCommand splits the trailing CMD... arguments named in §6 into a
// program and its arguments, defaulting to the user's shell (the
// asciinema convention) when none are given.
func resolveCommand(args []string) (string, []string) {
	if len(args) > 0 {
		return args[0], args[1:]
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, nil
}
