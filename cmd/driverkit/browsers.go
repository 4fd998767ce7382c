package main

import (
	"github.com/spf13/cobra"

	"github.com/anthienduong1212/driverkit/internal/provider"
)

func newBrowsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browsers",
		Short: "List the registered browser providers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printKeyList(cmd, provider.Builtin().Keys())
		},
	}
}
