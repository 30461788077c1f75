package cdp

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/cdp"
)

// idleTracker turns lifecycle events into a network-idle signal for the
// document loaded by the latest navigation. Events of other frames and of
// earlier documents, including the ones Chrome replays when lifecycle
// events are enabled, are ignored.
type idleTracker struct {
	mu     sync.Mutex
	frame  cdp.FrameID
	loader cdp.LoaderID
	armed  bool
	idle   chan struct{}
}

func newIdleTracker() *idleTracker {
	return &idleTracker{idle: make(chan struct{}, 1)}
}

func (t *idleTracker) setFrame(frame cdp.FrameID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frame = frame
}

// expect is called before a navigation. Only the document it commits can
// signal idle afterwards.
func (t *idleTracker) expect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.loader = ""
	select {
	case <-t.idle:
	default:
	}
}

func (t *idleTracker) observe(frame cdp.FrameID, loader cdp.LoaderID, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed || t.frame == "" || frame != t.frame {
		return
	}
	switch name {
	case "init":
		t.loader = loader
	case "networkIdle":
		if t.loader == "" || loader != t.loader {
			return
		}
		select {
		case t.idle <- struct{}{}:
		default:
		}
	}
}

func (t *idleTracker) wait(ctx context.Context) error {
	select {
	case <-t.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
