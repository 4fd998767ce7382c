// Package waiter polls a condition until it holds or a timeout passes,
// capturing a screenshot on timeout so the failure is diagnosable.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/report"
	"github.com/anthienduong1212/driverkit/internal/session"
)

// Condition reports whether the awaited state holds. Transient errors are
// swallowed and polling continues; the last one is attached to the timeout.
type Condition func(ctx context.Context) (bool, error)

// TimeoutError is returned when a condition never held within the budget.
type TimeoutError struct {
	Desc           string
	Timeout        time.Duration
	LastErr        error
	ScreenshotPath string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Desc)
	if e.LastErr != nil {
		msg += fmt.Sprintf(" (last error: %v)", e.LastErr)
	}
	if e.ScreenshotPath != "" {
		msg += fmt.Sprintf(" [screenshot: %s]", e.ScreenshotPath)
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// Waiter polls conditions against one session with the run's timing config.
type Waiter struct {
	sess     *session.Session
	timeout  time.Duration
	interval time.Duration
	reporter *report.Reporter
}

// For builds a waiter for a session using the resolved configuration.
// reporter may be nil to skip timeout screenshots.
func For(sess *session.Session, cfg *capability.Config, reporter *report.Reporter) *Waiter {
	timeout := cfg.WaitTimeout
	if timeout <= 0 {
		timeout = capability.DefaultWaitTimeout
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = capability.DefaultPollInterval
	}
	return &Waiter{sess: sess, timeout: timeout, interval: interval, reporter: reporter}
}

var errNotYet = errors.New("condition not met")

// Until polls cond every interval until it holds or the timeout elapses.
func (w *Waiter) Until(ctx context.Context, desc string, cond Condition) error {
	waitCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var lastErr error
	op := func() error {
		ok, err := cond(waitCtx)
		if err != nil {
			lastErr = err
			return err
		}
		if !ok {
			return errNotYet
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(w.interval), waitCtx))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		// The caller's own context died; not a wait timeout.
		return ctx.Err()
	}

	timeoutErr := &TimeoutError{Desc: desc, Timeout: w.timeout, LastErr: lastErr}
	if w.reporter != nil && w.sess != nil {
		if path, err := w.reporter.AttachScreenshot(ctx, "wait-timeout", w.sess); err == nil {
			timeoutErr.ScreenshotPath = path
		}
	}
	return timeoutErr
}

// UntilTitleContains waits for the page title to contain want.
func (w *Waiter) UntilTitleContains(ctx context.Context, want string) error {
	return w.Until(ctx, fmt.Sprintf("title to contain %q", want), func(ctx context.Context) (bool, error) {
		title, err := w.sess.Title(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(title, want), nil
	})
}

// UntilURLContains waits for the current URL to contain want.
func (w *Waiter) UntilURLContains(ctx context.Context, want string) error {
	return w.Until(ctx, fmt.Sprintf("url to contain %q", want), func(ctx context.Context) (bool, error) {
		url, err := w.sess.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(url, want), nil
	})
}
