// Command headterm is the CLI entrypoint: record or stream a child
// process's terminal session per the external interfaces in §6.
package main

import (
	"fmt"
	"os"

	"headterm/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "headterm:", err)
		os.Exit(1)
	}
}
