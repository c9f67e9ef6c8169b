// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metric

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/tally-booth/voting"
)

type fakeNotifier struct {
	subscribers    int
	dropped, stale uint64
}

func (n fakeNotifier) Subscribers() int { return n.subscribers }
func (n fakeNotifier) Dropped() uint64  { return n.dropped }
func (n fakeNotifier) Stale() uint64    { return n.stale }

func TestReason(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{voting.ErrNotAuthenticated, ReasonNotAuthenticated},
		{voting.ErrUnknownVoter, ReasonNotAuthenticated},
		{voting.ErrUnknownCandidate, ReasonUnknownCandidate},
		{voting.ErrAlreadyVoted, ReasonAlreadyVoted},
		{fmt.Errorf("%w: %w", voting.ErrStorage, errors.New("disk I/O error")), ReasonStorage},
		{errors.New("anything else"), ReasonStorage},
	}

	for _, tc := range testCases {
		if got := Reason(tc.err); got != tc.want {
			t.Errorf("Reason(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestObserver(t *testing.T) {
	m := New()

	m.VoteCast()
	m.VoteCast()
	m.TxRetried()
	m.VoteRejected(voting.ErrAlreadyVoted)
	m.VoteRejected(voting.ErrAlreadyVoted)
	m.VoteRejected(voting.ErrUnknownCandidate)

	if got := testutil.ToFloat64(m.votesCast); got != 2 {
		t.Errorf("Expected 2 votes cast, got %v", got)
	}
	if got := testutil.ToFloat64(m.txRetries); got != 1 {
		t.Errorf("Expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(m.votesRejected.WithLabelValues(ReasonAlreadyVoted)); got != 2 {
		t.Errorf("Expected 2 already_voted rejections, got %v", got)
	}
	if got := testutil.ToFloat64(m.votesRejected.WithLabelValues(ReasonUnknownCandidate)); got != 1 {
		t.Errorf("Expected 1 unknown_candidate rejection, got %v", got)
	}
}

func TestObserveNotifier(t *testing.T) {
	m := New()
	m.ObserveNotifier(fakeNotifier{subscribers: 3, dropped: 7, stale: 2})

	families, err := m.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Failed to gather: %v", err)
	}

	want := map[string]float64{
		"tally_notify_subscribers":   3,
		"tally_notify_dropped_total": 7,
		"tally_notify_stale_total":   2,
	}
	for _, f := range families {
		v, ok := want[f.GetName()]
		if !ok {
			continue
		}
		metric := f.GetMetric()[0]
		got := metric.GetGauge().GetValue() + metric.GetCounter().GetValue()
		if got != v {
			t.Errorf("%s = %v, want %v", f.GetName(), got, v)
		}
		delete(want, f.GetName())
	}
	if len(want) != 0 {
		t.Errorf("Missing metrics: %v", want)
	}
}

func TestCount(t *testing.T) {
	m := New()

	handler := m.Count(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("POST", "/api/vote", nil))
		if w.Code != http.StatusConflict {
			t.Errorf("Expected wrapped status 409, got %d", w.Code)
		}
	}

	if n := testutil.CollectAndCount(m.requestLatency); n != 1 {
		t.Errorf("Expected one latency series, got %d", n)
	}
	if got := testutil.ToFloat64(m.requestActive); got != 0 {
		t.Errorf("Expected no active requests, got %v", got)
	}
}
