// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/tally-booth/models"
	"github.com/danielhkuo/tally-booth/notify"
)

func snapshot(total int64) models.TallySnapshot {
	return models.TallySnapshot{
		Results:    []models.CandidateTally{{ID: 1, Name: "A", Tally: total}},
		TotalVotes: total,
		TakenAt:    time.Now(),
	}
}

func drain(sub *notify.Subscription) []int64 {
	var totals []int64
	for {
		select {
		case s, ok := <-sub.C():
			if !ok {
				return totals
			}
			totals = append(totals, s.TotalVotes)
		default:
			return totals
		}
	}
}

func TestPublishFansOut(t *testing.T) {
	hub := notify.NewHub(4)
	a := hub.Subscribe()
	b := hub.Subscribe()
	require.Equal(t, 2, hub.Subscribers())

	hub.Publish(snapshot(1))
	hub.Publish(snapshot(2))

	require.Equal(t, []int64{1, 2}, drain(a))
	require.Equal(t, []int64{1, 2}, drain(b))

	latest, ok := hub.Latest()
	require.True(t, ok)
	require.EqualValues(t, 2, latest.TotalVotes)
}

func TestPublishDropsStaleSnapshots(t *testing.T) {
	hub := notify.NewHub(8)
	sub := hub.Subscribe()

	hub.Publish(snapshot(3))
	hub.Publish(snapshot(2)) // older vote committed first, published late
	hub.Publish(snapshot(3)) // duplicate
	hub.Publish(snapshot(5))

	require.Equal(t, []int64{3, 5}, drain(sub))
	require.EqualValues(t, 2, hub.Stale())
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	hub := notify.NewHub(2)
	slow := hub.Subscribe()

	for i := int64(1); i <= 5; i++ {
		hub.Publish(snapshot(i))
	}

	// The newest snapshots survive, still in order
	require.Equal(t, []int64{4, 5}, drain(slow))
	require.EqualValues(t, 3, slow.Dropped())
	require.EqualValues(t, 3, hub.Dropped())
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := notify.NewHub(1)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	var got []int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range fast.C() {
			got = append(got, s.TotalVotes)
			if s.TotalVotes == 100 {
				return
			}
		}
	}()

	for i := int64(1); i <= 100; i++ {
		hub.Publish(snapshot(i))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fast subscriber never saw the last snapshot")
	}
	for i := 1; i < len(got); i++ {
		require.Greater(t, got[i], got[i-1])
	}
	require.Equal(t, []int64{100}, drain(slow))
}

func TestSubscriptionClose(t *testing.T) {
	hub := notify.NewHub(1)
	sub := hub.Subscribe()

	sub.Close()
	sub.Close() // idempotent
	require.Equal(t, 0, hub.Subscribers())

	_, ok := <-sub.C()
	require.False(t, ok)

	// Publishing after an unsubscribe must not panic
	hub.Publish(snapshot(1))
}

func TestHubClose(t *testing.T) {
	hub := notify.NewHub(1)
	sub := hub.Subscribe()

	hub.Close()
	_, ok := <-sub.C()
	require.False(t, ok)

	sub.Close()
	hub.Publish(snapshot(1))

	late := hub.Subscribe()
	_, ok = <-late.C()
	require.False(t, ok)
}

func TestConcurrentPublishIsMonotonic(t *testing.T) {
	hub := notify.NewHub(4)
	sub := hub.Subscribe()

	var received []int64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range sub.C() {
			received = append(received, s.TotalVotes)
		}
	}()

	var wg sync.WaitGroup
	for i := int64(1); i <= 200; i++ {
		wg.Add(1)
		go func(total int64) {
			defer wg.Done()
			hub.Publish(snapshot(total))
		}(i)
	}
	wg.Wait()
	sub.Close()
	<-done

	require.NotEmpty(t, received)
	for i := 1; i < len(received); i++ {
		require.Greater(t, received[i], received[i-1], "snapshot order regressed at %d", i)
	}
}
