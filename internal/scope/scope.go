// Package scope binds driver sessions to lifetimes: one test, one worker,
// or the whole run. Whatever the parallel mode, every session a manager
// creates is released exactly once, on every exit path.
package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/provider"
	"github.com/anthienduong1212/driverkit/internal/session"
)

// ErrManagerClosed is returned by Acquire after Close.
var ErrManagerClosed = errors.New("scope manager is closed")

// ReleaseFunc returns a session to its scope. Safe to call exactly once;
// later calls are no-ops.
type ReleaseFunc func()

// Manager hands out sessions according to a parallel mode.
//
// per-test: Acquire creates a fresh session, release closes it.
// per-worker: a bounded pool; each concurrent worker borrows one session and
// its tests reuse it. Browser state carries over between tests that share a
// session unless the test calls Session.Reset.
// none: one shared session for the whole run, closed by Manager.Close.
type Manager struct {
	reg     *provider.Registry
	cfg     *capability.Config
	mode    capability.ParallelMode
	workers int
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	all    []*session.Session

	// per-worker pool
	idle []*session.Session
	sem  chan struct{}

	// mode none
	sharedOnce sync.Once
	shared     *session.Session
	sharedErr  error
}

// NewManager creates a scope manager. workers bounds concurrent sessions in
// per-worker mode; zero means GOMAXPROCS.
func NewManager(reg *provider.Registry, cfg *capability.Config, mode capability.ParallelMode, workers int) *Manager {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Manager{
		reg:     reg,
		cfg:     cfg,
		mode:    mode,
		workers: workers,
		sem:     make(chan struct{}, workers),
		logger:  slog.Default().With("component", "scope"),
	}
}

// Mode returns the manager's parallel mode.
func (m *Manager) Mode() capability.ParallelMode { return m.mode }

// Acquire returns a session scoped per the manager's mode, plus its release
// func. The caller must invoke release when the owning test finishes,
// whatever the outcome.
func (m *Manager) Acquire(ctx context.Context) (*session.Session, ReleaseFunc, error) {
	if m.isClosed() {
		return nil, nil, ErrManagerClosed
	}

	switch m.mode {
	case capability.ModePerTest:
		return m.acquirePerTest(ctx)
	case capability.ModePerWorker:
		return m.acquirePerWorker(ctx)
	case capability.ModeNone:
		return m.acquireShared(ctx)
	default:
		return nil, nil, fmt.Errorf("unsupported parallel mode %q", m.mode)
	}
}

func (m *Manager) acquirePerTest(ctx context.Context) (*session.Session, ReleaseFunc, error) {
	sess, err := m.create(ctx)
	if err != nil {
		return nil, nil, err
	}
	var once sync.Once
	release := func() {
		once.Do(func() { m.close(sess) })
	}
	return sess, release, nil
}

func (m *Manager) acquirePerWorker(ctx context.Context) (*session.Session, ReleaseFunc, error) {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	sess := m.popIdle()
	if sess == nil {
		var err error
		sess, err = m.create(ctx)
		if err != nil {
			<-m.sem
			return nil, nil, err
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.pushIdle(sess)
			<-m.sem
		})
	}
	return sess, release, nil
}

func (m *Manager) acquireShared(ctx context.Context) (*session.Session, ReleaseFunc, error) {
	m.sharedOnce.Do(func() {
		m.shared, m.sharedErr = m.create(ctx)
	})
	if m.sharedErr != nil {
		return nil, nil, m.sharedErr
	}
	// Shared session persists until run end; per-test release is a no-op.
	return m.shared, func() {}, nil
}

// Close releases every session the manager still owns. Safe to call once at
// run end; Acquire fails afterwards.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	remaining := m.all
	m.all = nil
	m.idle = nil
	m.mu.Unlock()

	var errs []error
	for _, sess := range remaining {
		if sess.Closed() {
			continue
		}
		if err := sess.Close(ctx); err != nil {
			m.logger.Warn("session release failed", "session", sess.ID(), "browser", sess.Browser(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) create(ctx context.Context) (*session.Session, error) {
	sess, err := provider.NewSession(ctx, m.reg, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.close(sess)
		return nil, ErrManagerClosed
	}
	m.all = append(m.all, sess)
	m.mu.Unlock()

	m.logger.Debug("session created", "session", sess.ID(), "browser", sess.Browser(), "mode", m.mode)
	return sess, nil
}

// close releases a session, logging teardown failures instead of returning
// them so they never mask the test's own outcome.
func (m *Manager) close(sess *session.Session) {
	if err := sess.Close(context.Background()); err != nil {
		m.logger.Warn("session release failed", "session", sess.ID(), "browser", sess.Browser(), "error", err)
	}
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) popIdle() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.idle) > 0 {
		sess := m.idle[len(m.idle)-1]
		m.idle = m.idle[:len(m.idle)-1]
		if !sess.Closed() {
			return sess
		}
	}
	return nil
}

func (m *Manager) pushIdle(sess *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || sess.Closed() {
		return
	}
	m.idle = append(m.idle, sess)
}
