package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	navigated  []string
	cleared    int
	closeCalls int
	closeErr   error
}

func (s *stubBackend) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *stubBackend) Title(context.Context) (string, error)      { return "stub", nil }
func (s *stubBackend) CurrentURL(context.Context) (string, error) { return "about:blank", nil }
func (s *stubBackend) SetViewport(context.Context, int, int) error {
	return nil
}
func (s *stubBackend) SetPageLoadTimeout(time.Duration) error    { return nil }
func (s *stubBackend) Screenshot(context.Context) ([]byte, error) { return []byte{1}, nil }

func (s *stubBackend) ClearState(context.Context) error {
	s.cleared++
	return nil
}

func (s *stubBackend) Close(context.Context) error {
	s.closeCalls++
	return s.closeErr
}

func TestSessionIdentity(t *testing.T) {
	a := New("chrome", &stubBackend{})
	b := New("chrome", &stubBackend{})

	assert.Equal(t, "chrome", a.Browser())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.False(t, a.CreatedAt().IsZero())
}

func TestSessionCloseExactlyOnce(t *testing.T) {
	backend := &stubBackend{}
	sess := New("chrome", backend)
	ctx := context.Background()

	require.NoError(t, sess.Close(ctx))
	require.NoError(t, sess.Close(ctx))
	assert.Equal(t, 1, backend.closeCalls)
	assert.True(t, sess.Closed())
}

func TestSessionUseAfterClose(t *testing.T) {
	sess := New("firefox", &stubBackend{})
	ctx := context.Background()
	require.NoError(t, sess.Close(ctx))

	assert.ErrorIs(t, sess.Navigate(ctx, "https://example.com"), ErrSessionClosed)
	_, err := sess.Title(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = sess.Screenshot(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, sess.Reset(ctx), ErrSessionClosed)
}

func TestSessionClosePropagatesBackendError(t *testing.T) {
	backendErr := errors.New("browser refused to quit")
	backend := &stubBackend{closeErr: backendErr}
	sess := New("edge", backend)

	err := sess.Close(context.Background())
	assert.ErrorIs(t, err, backendErr)
	// The session counts as released even when the backend misbehaves.
	assert.True(t, sess.Closed())
	assert.NoError(t, sess.Close(context.Background()))
}

func TestSessionReset(t *testing.T) {
	backend := &stubBackend{}
	sess := New("chrome", backend)
	ctx := context.Background()

	require.NoError(t, sess.Navigate(ctx, "https://example.com/login"))
	require.NoError(t, sess.Reset(ctx))
	assert.Equal(t, 1, backend.cleared)
	assert.Equal(t, []string{"https://example.com/login"}, backend.navigated)
}
