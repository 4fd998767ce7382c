package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anthienduong1212/driverkit/internal/capability"
)

type rootFlags struct {
	browser      string
	browsers     []string
	headless     bool
	maximize     bool
	remoteURL    string
	windowSize   string
	parallelMode string
	configPath   string
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithFlags(&rootFlags{})
}

func newRootCmdWithFlags(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "driverkit",
		Short:         "Browser driver selection and session harness",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.browser, "browser", "", "single browser to run (chrome, firefox, edge)")
	pf.StringSliceVar(&flags.browsers, "browsers", nil, "browsers to run, comma separated or repeated")
	pf.BoolVar(&flags.headless, "headless", false, "run browsers in headless mode")
	pf.BoolVar(&flags.maximize, "maximize", false, "start browsers maximized")
	pf.StringVar(&flags.remoteURL, "remote-url", "", "grid/CDP hub URL, e.g. http://127.0.0.1:4444")
	pf.StringVar(&flags.windowSize, "window-size", "", "browser window size as WxH")
	pf.StringVar(&flags.parallelMode, "parallel-mode", "", "session scoping: none, per-test or per-worker")
	pf.StringVar(&flags.configPath, "browser-config", "", "path to the browsers YAML config")

	cmd.AddCommand(
		newBrowsersCmd(),
		newConfigCmd(flags),
		newDoctorCmd(flags),
	)
	return cmd
}

// resolveRun turns the flag set into a resolved config, the browser list to
// fan out over, and the parallel mode. All validation happens here, before
// any session construction.
func resolveRun(cmd *cobra.Command, flags *rootFlags) (*capability.Config, []string, capability.ParallelMode, error) {
	var file *capability.FileConfig
	path := flags.configPath
	if path == "" {
		path = capability.DefaultConfigPath()
	}
	if path != "" {
		var err error
		if file, err = capability.LoadFile(path); err != nil {
			return nil, nil, "", err
		}
	}

	opts := capability.Options{
		Browser:        flags.browser,
		RemoteEndpoint: flags.remoteURL,
		WindowSize:     flags.windowSize,
	}
	if cmd.Flags().Changed("headless") {
		opts.Headless = &flags.headless
	}
	if cmd.Flags().Changed("maximize") {
		opts.Maximize = &flags.maximize
	}

	cfg, err := capability.Resolve(file, opts)
	if err != nil {
		return nil, nil, "", err
	}

	browsers := flags.browsers
	switch {
	case len(browsers) > 0:
	case flags.browser != "":
		browsers = []string{cfg.Browser}
	case file != nil && len(file.BrowserKeys()) > 0:
		browsers = file.BrowserKeys()
	default:
		browsers = []string{cfg.Browser}
	}
	for i, name := range browsers {
		browsers[i] = capability.NormalizeKey(name)
	}

	mode, err := capability.ParseParallelMode(flags.parallelMode)
	if err != nil {
		return nil, nil, "", err
	}
	if err := capability.ValidateRun(browsers, mode); err != nil {
		return nil, nil, "", err
	}
	return cfg, browsers, mode, nil
}

func printKeyList(cmd *cobra.Command, keys []string) {
	for _, key := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
}
