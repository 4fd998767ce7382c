package provider

import (
	"context"
	"fmt"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/session"
)

// ConstructionError wraps a backend's failure to produce a session. It is
// fatal for the affected test or worker only; the factory never retries.
type ConstructionError struct {
	Browser string
	Err     error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to create %s session: %v", e.Browser, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// NewSession resolves the provider for cfg.Browser, invokes it, and applies
// the cross-cutting setup every backend gets: window sizing and page load
// timeout. Behavioral differences between browsers stay inside the provider.
func NewSession(ctx context.Context, reg *Registry, cfg *capability.Config) (*session.Session, error) {
	p, err := reg.Resolve(cfg.Browser)
	if err != nil {
		return nil, err
	}

	sess, err := p.New(ctx, cfg)
	if err != nil {
		return nil, &ConstructionError{Browser: p.Name, Err: err}
	}

	if err := applyCommonSetup(ctx, sess, cfg); err != nil {
		_ = sess.Close(ctx)
		return nil, &ConstructionError{Browser: p.Name, Err: err}
	}
	return sess, nil
}

func applyCommonSetup(ctx context.Context, sess *session.Session, cfg *capability.Config) error {
	if !cfg.Maximize && cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		if err := sess.SetViewport(ctx, cfg.WindowWidth, cfg.WindowHeight); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}
	if cfg.PageLoadTimeout > 0 {
		if err := sess.SetPageLoadTimeout(cfg.PageLoadTimeout); err != nil {
			return fmt.Errorf("set page load timeout: %w", err)
		}
	}
	return nil
}
