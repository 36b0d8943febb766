package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"headterm/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the headterm version",
		RunE: func(c *cobra.Command, args []string) error {
			fmt.Fprintln(c.OutOrStdout(), version.DisplayVersion())
			return nil
		},
	}
}
