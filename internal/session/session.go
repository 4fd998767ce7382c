// Package session holds the live browser session handle and the backend
// implementations that drive it. A Session is exclusively owned by the scope
// that created it and must be released exactly once; using it after release
// fails with ErrSessionClosed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionClosed is returned when a session is used after release.
var ErrSessionClosed = errors.New("session is closed")

// Backend is one live, controllable browser instance. Implementations wrap
// a concrete automation library (chromedp, playwright).
type Backend interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	SetViewport(ctx context.Context, width, height int) error
	SetPageLoadTimeout(d time.Duration) error
	Screenshot(ctx context.Context) ([]byte, error)

	// ClearState wipes carry-over browser state (cookies, origin storage).
	// Sessions shared across tests keep state between them unless the test
	// calls Reset; that sharing is intended behavior, not a leak.
	ClearState(ctx context.Context) error

	Close(ctx context.Context) error
}

// Session wraps a backend with identity and release-once semantics.
type Session struct {
	mu sync.Mutex

	id        string
	browser   string
	backend   Backend
	createdAt time.Time
	closed    bool
}

// New wraps a backend in a session for the given browser key.
func New(browser string, backend Backend) *Session {
	return &Session{
		id:        fmt.Sprintf("sess-%s", uuid.New().String()[:8]),
		browser:   browser,
		backend:   backend,
		createdAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Browser returns the provider key that constructed this session.
func (s *Session) Browser() string { return s.browser }

// CreatedAt returns the construction time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) live() (Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.backend, nil
}

// Navigate loads a URL in the session's page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	b, err := s.live()
	if err != nil {
		return err
	}
	return b.Navigate(ctx, url)
}

// Title returns the current page title.
func (s *Session) Title(ctx context.Context) (string, error) {
	b, err := s.live()
	if err != nil {
		return "", err
	}
	return b.Title(ctx)
}

// CurrentURL returns the current page URL.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	b, err := s.live()
	if err != nil {
		return "", err
	}
	return b.CurrentURL(ctx)
}

// SetViewport resizes the page viewport.
func (s *Session) SetViewport(ctx context.Context, width, height int) error {
	b, err := s.live()
	if err != nil {
		return err
	}
	return b.SetViewport(ctx, width, height)
}

// SetPageLoadTimeout bounds future navigations.
func (s *Session) SetPageLoadTimeout(d time.Duration) error {
	b, err := s.live()
	if err != nil {
		return err
	}
	return b.SetPageLoadTimeout(d)
}

// Screenshot captures the current page as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	b, err := s.live()
	if err != nil {
		return nil, err
	}
	return b.Screenshot(ctx)
}

// Reset clears cookies and storage so a reused session starts the next test
// without carry-over state.
func (s *Session) Reset(ctx context.Context) error {
	b, err := s.live()
	if err != nil {
		return err
	}
	return b.ClearState(ctx)
}

// Close releases the underlying browser. The first call wins; later calls
// are no-ops so teardown paths can overlap safely.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	backend := s.backend
	s.mu.Unlock()

	return backend.Close(ctx)
}

// Closed reports whether the session has been released.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
