// Package flight guards a page instance's network interaction: at most one
// request in flight, and an unmounted page cancels what it started.
package flight

import (
	"context"
	"sync"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

// Flight is the single-in-flight request guard of one page instance.
// The zero value is ready to use.
type Flight struct {
	mu     sync.Mutex
	busy   bool
	closed bool
	cancel context.CancelFunc
}

// Begin reserves the flight for one request. The returned context is
// cancelled by End, by Close, or when parent is done.
func (f *Flight) Begin(parent context.Context) (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, domain.ErrPageClosed
	}
	if f.busy {
		return nil, domain.ErrRequestInFlight
	}

	ctx, cancel := context.WithCancel(parent)
	f.busy = true
	f.cancel = cancel
	return ctx, nil
}

// End releases the flight. It reports false when the page was closed while
// the request was running; the caller must then drop the outcome.
func (f *Flight) End() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.busy = false
	return !f.closed
}

// Busy reports whether a request is in flight.
func (f *Flight) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Close cancels the in-flight request, if any, and refuses further ones.
func (f *Flight) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Closed reports whether Close was called.
func (f *Flight) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
