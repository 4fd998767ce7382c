package session

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// ChromedpBackend drives a Chromium-family browser over CDP via chromedp.
// The provider owns allocator construction; the backend owns the tab context
// and teardown of both.
type ChromedpBackend struct {
	mu sync.Mutex

	taskCtx     context.Context
	taskCancel  context.CancelFunc
	allocCancel context.CancelFunc

	navTimeout time.Duration
}

// NewChromedpBackend wraps an already-allocated chromedp context. allocCancel
// may be nil for remote allocators that own nothing locally.
func NewChromedpBackend(taskCtx context.Context, taskCancel, allocCancel context.CancelFunc) *ChromedpBackend {
	return &ChromedpBackend{
		taskCtx:     taskCtx,
		taskCancel:  taskCancel,
		allocCancel: allocCancel,
	}
}

// run executes actions on the session's tab context, honoring the caller's
// deadline when one is set.
func (b *ChromedpBackend) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := b.taskCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (b *ChromedpBackend) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	timeout := b.navTimeout
	b.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *ChromedpBackend) Title(ctx context.Context) (string, error) {
	var title string
	err := b.run(ctx, chromedp.Title(&title))
	return title, err
}

func (b *ChromedpBackend) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := b.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (b *ChromedpBackend) SetViewport(ctx context.Context, width, height int) error {
	return b.run(ctx, chromedp.EmulateViewport(int64(width), int64(height)))
}

func (b *ChromedpBackend) SetPageLoadTimeout(d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navTimeout = d
	return nil
}

func (b *ChromedpBackend) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := b.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (b *ChromedpBackend) ClearState(ctx context.Context) error {
	return b.run(ctx,
		network.ClearBrowserCookies(),
		storage.ClearDataForOrigin("*", "all"),
	)
}

func (b *ChromedpBackend) Close(_ context.Context) error {
	// chromedp.Cancel waits for the browser to exit gracefully before the
	// contexts are torn down.
	err := chromedp.Cancel(b.taskCtx)
	b.taskCancel()
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return err
}
