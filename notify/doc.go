// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify broadcasts tally snapshots to live subscribers.

A Hub keeps a bounded buffer per Subscription. Publish never blocks: a
full buffer loses its oldest snapshot to make room. Snapshots whose
TotalVotes does not exceed the last published one are skipped, so each
subscriber observes strictly increasing totals even when commits are
published out of order.

	hub := notify.NewHub(16)
	sub := hub.Subscribe()
	defer sub.Close()

	for snapshot := range sub.C() {
		// forward snapshot
	}
*/
package notify
