// Package binder implements the session binder (component C8): a
// soft-state map from task_id to the channel (SSE connection id) that
// should currently receive that task's push events, plus a periodic
// consistency check that drops bindings whose channel has gone away.
package binder

import (
	"context"
	"sync"
	"time"
)

// ChannelChecker reports whether a bound channel is still alive. The
// binder calls it from its consistency-check loop; it must not block
// for long since it runs while the binder's lock is released but on a
// shared background goroutine.
type ChannelChecker func(channelID string) bool

// CheckInterval is how often the binder re-validates every bound
// channel (property P5: rebind re-routes future events, so a stale
// binding must not survive longer than one interval after its channel
// dies).
const CheckInterval = 5 * time.Second

// Binder holds the task_id -> channel_id map. All methods are safe for
// concurrent use.
type Binder struct {
	mu       sync.Mutex
	bindings map[string]string // task_id -> channel_id

	checker  ChannelChecker
	interval time.Duration
}

// New creates a Binder. checker may be nil, in which case the
// consistency-check loop is a no-op and bindings are only ever removed
// by explicit Unbind.
func New(checker ChannelChecker) *Binder {
	return &Binder{
		bindings: make(map[string]string),
		checker:  checker,
		interval: CheckInterval,
	}
}

// WithInterval overrides the consistency-check period. Intended for
// tests; production callers get CheckInterval from New.
func (b *Binder) WithInterval(d time.Duration) *Binder {
	b.interval = d
	return b
}

// Bind associates taskID with channelID, replacing any existing
// binding for that task (a Bind following a prior Bind for the same
// task is a rebind: property P5 requires subsequent events to route to
// the new channel only).
func (b *Binder) Bind(taskID, channelID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings[taskID] = channelID
}

// Unbind removes taskID's binding, if any.
func (b *Binder) Unbind(taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bindings, taskID)
}

// ChannelFor returns the channel currently bound to taskID, and
// whether a binding exists. Events for an unbound task are dropped by
// the caller.
func (b *Binder) ChannelFor(taskID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.bindings[taskID]
	return ch, ok
}

// Len reports the number of currently live bindings. Used by tests and
// diagnostics.
func (b *Binder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bindings)
}

// Run starts the consistency-check loop, which every CheckInterval
// drops any binding whose channel the checker reports as dead. It
// blocks until ctx is done.
func (b *Binder) Run(ctx context.Context) {
	if b.checker == nil {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

func (b *Binder) sweep() {
	b.mu.Lock()
	snapshot := make(map[string]string, len(b.bindings))
	for taskID, channelID := range b.bindings {
		snapshot[taskID] = channelID
	}
	b.mu.Unlock()

	stale := make([]string, 0)
	for taskID, channelID := range snapshot {
		if !b.checker(channelID) {
			stale = append(stale, taskID)
		}
	}

	b.mu.Lock()
	for _, taskID := range stale {
		if b.bindings[taskID] == snapshot[taskID] {
			delete(b.bindings, taskID)
		}
	}
	b.mu.Unlock()
}
