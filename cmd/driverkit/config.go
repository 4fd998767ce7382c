package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newConfigCmd prints the fully resolved run configuration so users can see
// what the file, environment and flag layers merged into.
func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved run configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, browsers, mode, err := resolveRun(cmd, flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "browsers:          %s\n", strings.Join(browsers, ", "))
			fmt.Fprintf(out, "parallel mode:     %s\n", mode)
			fmt.Fprintf(out, "headless:          %t\n", cfg.Headless)
			fmt.Fprintf(out, "maximize:          %t\n", cfg.Maximize)
			fmt.Fprintf(out, "window:            %dx%d\n", cfg.WindowWidth, cfg.WindowHeight)
			fmt.Fprintf(out, "wait timeout:      %s\n", cfg.WaitTimeout)
			fmt.Fprintf(out, "poll interval:     %s\n", cfg.PollInterval)
			fmt.Fprintf(out, "page load timeout: %s\n", cfg.PageLoadTimeout)
			if cfg.RemoteEndpoint != "" {
				fmt.Fprintf(out, "remote endpoint:   %s\n", cfg.RemoteEndpoint)
			}
			for _, b := range browsers {
				if remote := cfg.RemoteFor(b); remote != "" && remote != cfg.RemoteEndpoint {
					fmt.Fprintf(out, "remote (%s):   %s\n", b, remote)
				}
			}
			return nil
		},
	}
}
