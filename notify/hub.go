// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"sync"
	"sync/atomic"

	"github.com/danielhkuo/tally-booth/models"
)

// Hub fans tally snapshots out to subscribers.
//
// Every subscriber has a bounded buffer. When it is full the oldest
// buffered snapshot is dropped, so a slow subscriber falls behind but
// never blocks Publish. Snapshots are only forwarded if their TotalVotes
// is greater than the last forwarded one; each subscriber therefore sees
// a strictly increasing sequence.
type Hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	latest  models.TallySnapshot
	hasLast bool
	closed  bool

	bufferSize int
	dropped    atomic.Uint64
	stale      atomic.Uint64
}

// NewHub returns a Hub whose subscribers buffer up to bufferSize
// snapshots. bufferSize below 1 is treated as 1.
func NewHub(bufferSize int) *Hub {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Hub{
		subs:       make(map[*Subscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscription is a live stream of snapshots. Receive from C until it is
// closed; call Close when done.
type Subscription struct {
	hub     *Hub
	ch      chan models.TallySnapshot
	dropped atomic.Uint64
}

// C returns the snapshot channel. It is closed by Close or Hub.Close.
func (s *Subscription) C() <-chan models.TallySnapshot {
	return s.ch
}

// Dropped returns how many snapshots were discarded for this subscriber
// because its buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Subscribe registers a new subscriber. Subscribing to a closed Hub
// returns a Subscription whose channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		hub: h,
		ch:  make(chan models.TallySnapshot, h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish forwards snapshot to every subscriber without blocking.
func (h *Hub) Publish(snapshot models.TallySnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if h.hasLast && snapshot.TotalVotes <= h.latest.TotalVotes {
		// A later vote's snapshot was published first.
		h.stale.Add(1)
		return
	}
	h.latest = snapshot
	h.hasLast = true

	for s := range h.subs {
		select {
		case s.ch <- snapshot:
			continue
		default:
		}

		// Buffer full: drop the oldest. Only Publish sends and it holds
		// h.mu, so the second send finds a free slot.
		select {
		case <-s.ch:
			s.dropped.Add(1)
			h.dropped.Add(1)
		default:
		}
		select {
		case s.ch <- snapshot:
		default:
		}
	}
}

// Latest returns the most recently published snapshot.
func (h *Hub) Latest() (models.TallySnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.hasLast
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns the number of snapshots discarded from full buffers.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Stale returns the number of published snapshots ignored because a newer
// one had already been forwarded.
func (h *Hub) Stale() uint64 { return h.stale.Load() }

// Close closes every subscription. Later Publish calls are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
}
