package renderer

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// idleWaiter tracks in-flight network requests on a single tab and reports
// when the wire has been quiet for a configured period. Image and font
// fetches triggered by the document keep the tab busy until they finish,
// so waiting on the waiter guarantees externally referenced assets are in
// before capture.
type idleWaiter struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	lastSeen time.Time
}

// trackNetwork attaches the waiter to the tab's CDP event stream. It must
// be called before navigation so no request is missed.
func trackNetwork(tabCtx context.Context) *idleWaiter {
	w := &idleWaiter{
		inflight: make(map[network.RequestID]struct{}),
		lastSeen: time.Now(),
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			w.mu.Lock()
			w.inflight[e.RequestID] = struct{}{}
			w.lastSeen = time.Now()
			w.mu.Unlock()
		case *network.EventLoadingFinished:
			w.settle(e.RequestID)
		case *network.EventLoadingFailed:
			w.settle(e.RequestID)
		}
	})

	return w
}

func (w *idleWaiter) settle(id network.RequestID) {
	w.mu.Lock()
	delete(w.inflight, id)
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

// quiet reports whether no request is pending and nothing has moved for
// the given period.
func (w *idleWaiter) quiet(period time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inflight) == 0 && time.Since(w.lastSeen) >= period
}

// waitIdle blocks until the tab's network has been quiet for period, or
// the context expires. A context expiry is not fatal to the render: the
// caller captures whatever has loaded so far.
func (w *idleWaiter) waitIdle(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		return nil
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if w.quiet(period) {
				return nil
			}
		}
	}
}
