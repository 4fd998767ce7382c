package scope

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthienduong1212/driverkit/internal/capability"
	"github.com/anthienduong1212/driverkit/internal/provider"
	"github.com/anthienduong1212/driverkit/internal/session"
)

type countingBackend struct {
	closes *atomic.Int32
}

func (b *countingBackend) Navigate(context.Context, string) error       { return nil }
func (b *countingBackend) Title(context.Context) (string, error)        { return "", nil }
func (b *countingBackend) CurrentURL(context.Context) (string, error)   { return "", nil }
func (b *countingBackend) SetViewport(context.Context, int, int) error  { return nil }
func (b *countingBackend) SetPageLoadTimeout(time.Duration) error       { return nil }
func (b *countingBackend) Screenshot(context.Context) ([]byte, error)   { return nil, nil }
func (b *countingBackend) ClearState(context.Context) error             { return nil }

func (b *countingBackend) Close(context.Context) error {
	b.closes.Add(1)
	return nil
}

type harnessCounters struct {
	creates atomic.Int32
	closes  atomic.Int32
}

func testManager(t *testing.T, mode capability.ParallelMode, workers int) (*Manager, *harnessCounters) {
	t.Helper()

	counters := &harnessCounters{}
	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(provider.Provider{
		Name: "fake",
		New: func(context.Context, *capability.Config) (*session.Session, error) {
			counters.creates.Add(1)
			return session.New("fake", &countingBackend{closes: &counters.closes}), nil
		},
	}))

	cfg, err := capability.Resolve(nil, capability.Options{Browser: "fake"})
	require.NoError(t, err)

	return NewManager(reg, cfg, mode, workers), counters
}

func TestPerTestModePairsCreateAndRelease(t *testing.T) {
	mgr, counters := testManager(t, capability.ModePerTest, 0)
	ctx := context.Background()

	const tests = 5
	for i := 0; i < tests; i++ {
		sess, release, err := mgr.Acquire(ctx)
		require.NoError(t, err)
		// Release runs whether the test body passed or panicked.
		func() {
			defer release()
			_ = sess.Navigate(ctx, "about:blank")
		}()
		assert.True(t, sess.Closed())
	}

	assert.Equal(t, int32(tests), counters.creates.Load())
	assert.Equal(t, int32(tests), counters.closes.Load())
	require.NoError(t, mgr.Close(ctx))
	assert.Equal(t, int32(tests), counters.closes.Load(), "close must not double-release")
}

func TestPerTestReleaseIsIdempotent(t *testing.T) {
	mgr, counters := testManager(t, capability.ModePerTest, 0)

	_, release, err := mgr.Acquire(context.Background())
	require.NoError(t, err)
	release()
	release()
	assert.Equal(t, int32(1), counters.closes.Load())
}

func TestPerWorkerModeReusesSessions(t *testing.T) {
	const workers = 2
	mgr, counters := testManager(t, capability.ModePerWorker, workers)
	ctx := context.Background()

	t.Run("sequential tests share one session", func(t *testing.T) {
		var seen []string
		for i := 0; i < 4; i++ {
			sess, release, err := mgr.Acquire(ctx)
			require.NoError(t, err)
			seen = append(seen, sess.ID())
			release()
		}
		for _, id := range seen {
			assert.Equal(t, seen[0], id)
		}
		assert.Equal(t, int32(1), counters.creates.Load())
	})

	t.Run("concurrent tests bounded by worker count", func(t *testing.T) {
		const tests = 12
		var wg sync.WaitGroup
		for i := 0; i < tests; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sess, release, err := mgr.Acquire(ctx)
				if !assert.NoError(t, err) {
					return
				}
				defer release()
				_ = sess.Navigate(ctx, "about:blank")
			}()
		}
		wg.Wait()
		assert.LessOrEqual(t, counters.creates.Load(), int32(workers))
	})

	require.NoError(t, mgr.Close(ctx))
	assert.Equal(t, counters.creates.Load(), counters.closes.Load())
}

func TestSharedModeSingleSessionForRun(t *testing.T) {
	mgr, counters := testManager(t, capability.ModeNone, 0)
	ctx := context.Background()

	first, release1, err := mgr.Acquire(ctx)
	require.NoError(t, err)
	release1()

	second, release2, err := mgr.Acquire(ctx)
	require.NoError(t, err)
	release2()

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), counters.creates.Load())
	assert.False(t, first.Closed(), "shared session outlives each test")

	require.NoError(t, mgr.Close(ctx))
	assert.True(t, first.Closed())
	assert.Equal(t, int32(1), counters.closes.Load())
}

func TestAcquireAfterClose(t *testing.T) {
	mgr, _ := testManager(t, capability.ModePerTest, 0)
	require.NoError(t, mgr.Close(context.Background()))

	_, _, err := mgr.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestCloseReleasesBorrowedWorkerSessions(t *testing.T) {
	mgr, counters := testManager(t, capability.ModePerWorker, 2)
	ctx := context.Background()

	sess, _, err := mgr.Acquire(ctx)
	require.NoError(t, err)

	// Run teardown while a worker still holds its session.
	require.NoError(t, mgr.Close(ctx))
	assert.True(t, sess.Closed())
	assert.Equal(t, int32(1), counters.closes.Load())
}

func TestAcquirePropagatesConstructionFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	var closes atomic.Int32

	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(provider.Provider{
		Name: "flaky",
		New: func(context.Context, *capability.Config) (*session.Session, error) {
			if fail.Load() {
				return nil, assert.AnError
			}
			return session.New("flaky", &countingBackend{closes: &closes}), nil
		},
	}))
	cfg, err := capability.Resolve(nil, capability.Options{Browser: "flaky"})
	require.NoError(t, err)

	mgr := NewManager(reg, cfg, capability.ModePerWorker, 1)
	ctx := context.Background()

	_, _, err = mgr.Acquire(ctx)
	var constructionErr *provider.ConstructionError
	require.ErrorAs(t, err, &constructionErr)

	// The failed acquire must give its worker slot back.
	fail.Store(false)
	sess, release, err := mgr.Acquire(ctx)
	require.NoError(t, err)
	release()
	assert.False(t, sess.Closed())
	require.NoError(t, mgr.Close(ctx))
}

func TestCloseIsIdempotent(t *testing.T) {
	mgr, _ := testManager(t, capability.ModeNone, 0)
	_, _, err := mgr.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, mgr.Close(context.Background()))
	require.NoError(t, mgr.Close(context.Background()))
}
