// Package harness is the test-facing surface of driverkit. It hands each
// test a browser session scoped per the configured parallel mode, guarantees
// release on every exit path via t.Cleanup, attaches a screenshot when the
// test failed, and provides a fresh soft-assertion collector per test.
//
// Typical wiring:
//
//	var h *harness.Harness
//
//	func TestMain(m *testing.M) {
//		cfg, _ := capability.Resolve(nil, capability.Options{})
//		h, _ = harness.New(cfg, capability.ModePerTest)
//		code := m.Run()
//		h.Close()
//		os.Exit(code)
//	}
//
//	func TestCheckout(t *testing.T) {
//		sess := h.Session(t)
//		soft := h.Soft(t)
//		...
//	}
package harness

import (
	"context"
	"testing"
	"time"

	"github.com/anthienduong1212/driverkit/internal/assertion"
	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/provider"
	"github.com/anthienduong1212/driverkit/internal/report"
	"github.com/anthienduong1212/driverkit/internal/scope"
	"github.com/anthienduong1212/driverkit/internal/session"
	"github.com/anthienduong1212/driverkit/internal/waiter"
)

// acquireTimeout bounds session construction for one test.
const acquireTimeout = 2 * time.Minute

// Harness owns the provider registry and session scope for one test run.
type Harness struct {
	cfg      *capability.Config
	mgr      *scope.Manager
	reporter *report.Reporter
}

// Option customizes a Harness.
type Option func(*options)

type options struct {
	registry *provider.Registry
	reporter *report.Reporter
	workers  int
}

// WithRegistry replaces the built-in provider registry. This is the
// extension point for additional backends: register them before passing the
// registry in.
func WithRegistry(reg *provider.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithReporter replaces the default artifact reporter.
func WithReporter(r *report.Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithWorkers bounds concurrent sessions in per-worker mode.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// New builds a harness for one run. The browser/mode combination is
// validated up front so misconfiguration fails before any browser starts.
func New(cfg *capability.Config, mode capability.ParallelMode, opts ...Option) (*Harness, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = provider.Builtin()
	}
	if o.reporter == nil {
		o.reporter = report.NewReporter("")
	}

	if err := capability.ValidateRun([]string{cfg.Browser}, mode); err != nil {
		return nil, err
	}
	// Unknown browsers abort the run during setup, not mid-test.
	if _, err := o.registry.Resolve(cfg.Browser); err != nil {
		return nil, err
	}

	return &Harness{
		cfg:      cfg,
		mgr:      scope.NewManager(o.registry, cfg, mode, o.workers),
		reporter: o.reporter,
	}, nil
}

// Config returns the run's resolved configuration.
func (h *Harness) Config() *capability.Config { return h.cfg }

// Session returns the browser session for this test. Release is registered
// on t.Cleanup, so it runs on pass, failure, and panic alike; a failed test
// gets a screenshot attached first.
func (h *Harness) Session(t *testing.T) *session.Session {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()

	sess, release, err := h.mgr.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire browser session: %v", err)
	}

	t.Cleanup(func() {
		if t.Failed() && !sess.Closed() {
			if _, err := h.reporter.AttachScreenshot(context.Background(), t.Name(), sess); err != nil {
				t.Logf("failure screenshot not captured: %v", err)
			}
		}
		release()
	})
	return sess
}

// Waiter returns a condition waiter bound to sess with the run's timing.
func (h *Harness) Waiter(sess *session.Session) *waiter.Waiter {
	return waiter.For(sess, h.cfg, h.reporter)
}

// Soft returns a fresh soft-assertion collector, flushed automatically at
// test end regardless of outcome.
func (h *Harness) Soft(t *testing.T) *assertion.Soft {
	t.Helper()
	soft := assertion.NewSoft()
	t.Cleanup(func() { soft.Flush(t) })
	return soft
}

// Close tears down whatever sessions the scope still owns. Call it after
// m.Run in TestMain.
func (h *Harness) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return h.mgr.Close(ctx)
}
