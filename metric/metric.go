// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metric

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/tally-booth/voting"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonNotAuthenticated = "not_authenticated"
	ReasonUnknownCandidate = "unknown_candidate"
	ReasonAlreadyVoted     = "already_voted"
	ReasonStorage          = "storage"
)

// New returns a new Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "vote",
			Name:      "cast_total",
			Help:      "Number of committed votes.",
		}),
		votesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "vote",
			Name:      "rejected_total",
			Help:      "Number of rejected vote attempts by reason.",
		}, []string{"reason"}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "vote",
			Name:      "tx_retries_total",
			Help:      "Number of vote transactions retried after write contention.",
		}),
		requestActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tally",
			Subsystem: "http",
			Name:      "request_active",
			Help:      "Number of active requests that are not finished, yet.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tally",
			Subsystem: "http",
			Name:      "response_time",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0}, // from 5ms to 5s
			Help:      "Histogram of request response times spawning from 5ms to 5s.",
		}, []string{"code"}),
		startTime: time.Now(),
	}

	m.registry.MustRegister(m.votesCast)
	m.registry.MustRegister(m.votesRejected)
	m.registry.MustRegister(m.txRetries)
	m.registry.MustRegister(m.requestActive)
	m.registry.MustRegister(m.requestLatency)
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tally",
		Subsystem: "system",
		Name:      "up_time",
		Help:      "The time the server has been up and running in seconds.",
	}, func() float64 {
		return time.Since(m.startTime).Truncate(10 * time.Millisecond).Seconds()
	}))
	return m
}

// Metrics gathers vote outcomes, notifier state, and HTTP statistics.
// It implements voting.Observer.
type Metrics struct {
	registry *prometheus.Registry

	votesCast     prometheus.Counter
	votesRejected *prometheus.CounterVec
	txRetries     prometheus.Counter

	requestActive  prometheus.Gauge
	requestLatency *prometheus.HistogramVec

	startTime time.Time
}

var _ voting.Observer = (*Metrics)(nil)

// Notifier is the part of the snapshot hub that is exported as metrics.
type Notifier interface {
	Subscribers() int
	Dropped() uint64
	Stale() uint64
}

// ObserveNotifier exports the subscriber count and the drop counters of n.
func (m *Metrics) ObserveNotifier(n Notifier) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tally",
		Subsystem: "notify",
		Name:      "subscribers",
		Help:      "Number of live tally subscribers.",
	}, func() float64 { return float64(n.Subscribers()) }))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "notify",
		Name:      "dropped_total",
		Help:      "Number of snapshots dropped from full subscriber buffers.",
	}, func() float64 { return float64(n.Dropped()) }))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "notify",
		Name:      "stale_total",
		Help:      "Number of published snapshots skipped because a newer one was already sent.",
	}, func() float64 { return float64(n.Stale()) }))
}

func (m *Metrics) VoteCast() { m.votesCast.Inc() }

func (m *Metrics) TxRetried() { m.txRetries.Inc() }

func (m *Metrics) VoteRejected(err error) {
	m.votesRejected.WithLabelValues(Reason(err)).Inc()
}

// Reason maps a CastVote error to its label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, voting.ErrNotAuthenticated), errors.Is(err, voting.ErrUnknownVoter):
		return ReasonNotAuthenticated
	case errors.Is(err, voting.ErrUnknownCandidate):
		return ReasonUnknownCandidate
	case errors.Is(err, voting.ErrAlreadyVoted):
		return ReasonAlreadyVoted
	default:
		return ReasonStorage
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mostly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Count returns a HandlerFunc that wraps h and records how many
// requests are in flight and how long they take, by status code.
func (m *Metrics) Count(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.requestActive.Inc()
		defer m.requestActive.Dec()

		start := time.Now()
		cw := &countResponseWriter{ResponseWriter: w, code: http.StatusOK}
		h(cw, r)
		m.requestLatency.WithLabelValues(http.StatusText(cw.code)).Observe(time.Since(start).Seconds())
	}
}

type countResponseWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (w *countResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *countResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack hands the connection to the WebSocket upgrader.
func (w *countResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("metric: %T does not implement http.Hijacker", w.ResponseWriter)
	}
	w.code = http.StatusSwitchingProtocols
	return h.Hijack()
}
