package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/provider"
)

const (
	doctorTimeout = 2 * time.Minute
	doctorTitle   = "driverkit doctor"
)

// newDoctorCmd launches one real session per configured browser, loads a
// trivial page and reads its title back. It is the quickest way to confirm
// that drivers, binaries and remote endpoints are actually reachable.
func newDoctorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Launch each configured browser and verify it responds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, browsers, mode, err := resolveRun(cmd, flags)
			if err != nil {
				return err
			}

			reg := provider.Builtin()
			// Unknown browsers fail before anything launches.
			for _, name := range browsers {
				if _, err := reg.Resolve(name); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
			defer cancel()

			g, ctx := errgroup.WithContext(ctx)
			if mode == capability.ModeNone {
				g.SetLimit(1)
			} else {
				g.SetLimit(len(browsers))
			}
			for _, name := range browsers {
				g.Go(func() error {
					return checkBrowser(ctx, reg, cfg, name)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", strings.Join(browsers, ", "))
			return nil
		},
	}
}

func checkBrowser(ctx context.Context, reg *provider.Registry, cfg *capability.Config, name string) error {
	log := slog.With("component", "doctor", "browser", name)
	start := time.Now()

	sess, err := provider.NewSession(ctx, reg, cfg.WithBrowser(name))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := sess.Close(closeCtx); err != nil {
			log.Warn("session close failed", "error", err)
		}
	}()

	page := "data:text/html,<title>" + doctorTitle + "</title>"
	if err := sess.Navigate(ctx, page); err != nil {
		return fmt.Errorf("%s: navigate: %w", name, err)
	}
	title, err := sess.Title(ctx)
	if err != nil {
		return fmt.Errorf("%s: read title: %w", name, err)
	}
	if title != doctorTitle {
		return fmt.Errorf("%s: unexpected title %q", name, title)
	}

	log.Info("browser responded", "session", sess.ID(), "took", time.Since(start).Round(time.Millisecond))
	return nil
}
