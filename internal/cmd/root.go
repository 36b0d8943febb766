// Package cmd assembles the cobra CLI surface named in §6: a root
// command carrying the top-level --size/--listen/--subscribe flags, the
// record and stream subcommands, and a version subcommand.
package cmd

import (
	"github.com/spf13/cobra"

	"headterm/internal/config"
)

// rootFlags holds the top-level flags shared by both subcommands.
type rootFlags struct {
	size      string
	listen    string
	subscribe string
}

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "headterm",
		Short: "Headless terminal multiplexer",
		Long:  "headterm spawns a child process in a pseudo-terminal and makes its input, output, and terminal state observable over standard I/O, websockets, a recording file, and a remote asciinema-compatible stream.",
	}

	rootCmd.PersistentFlags().StringVar(&flags.size, "size", "", "terminal size as COLSxROWS (default 80x24)")
	rootCmd.PersistentFlags().StringVar(&flags.listen, "listen", "", "address to serve the HTTP/websocket API on, e.g. :7681")
	rootCmd.PersistentFlags().Lookup("listen").NoOptDefVal = config.DefaultListenAddr
	rootCmd.PersistentFlags().StringVar(&flags.subscribe, "subscribe", "", "comma-separated event kinds to print on stdout (default: all)")

	rootCmd.AddCommand(
		newRecordCmd(flags),
		newStreamCmd(flags),
		newVersionCmd(),
	)

	return rootCmd
}
