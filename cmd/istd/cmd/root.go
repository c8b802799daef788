// Package cmd builds istd's command tree, mirroring the teacher's own
// top-level cmd package: a root command that prints its usage by default
// and version info with -v, with "start" and "connect" wired in as
// subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dutow/galera/cmd/istd/connect"
	"github.com/dutow/galera/cmd/istd/start"
)

var flagPrintVersion bool

const version = "0.1.0"

// Execute builds the command tree and executes commands.
func Execute() error {
	c := &cobra.Command{
		Use: "istd",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagPrintVersion {
				fmt.Printf("istd version %s\n", version)
				return nil
			}
			return cmd.Usage()
		},
	}

	c.AddCommand(start.Cmd)
	c.AddCommand(connect.Cmd)
	c.Flags().BoolVarP(&flagPrintVersion, "version", "v", false, "show the version info and exit")

	return c.Execute()
}
