// Package metrics exposes session lifecycle counters for prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "audioingest"

const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
	ResultError   = "error"

	ReasonFailed   = "failed"
	ReasonShutdown = "shutdown"

	TrackBound   = "bound"
	TrackIgnored = "ignored"
)

type Metrics struct {
	sessionsActive prometheus.Gauge
	negotiations   *prometheus.CounterVec
	closes         *prometheus.CounterVec
	audioTracks    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of peer connections currently held in the session registry",
		}),
		negotiations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_total",
			Help:      "Offer/answer negotiations by outcome",
		}, []string{"result"}),
		closes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_closes_total",
			Help:      "Peer connection closes by reason and outcome",
		}, []string{"reason", "result"}),
		audioTracks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_tracks_total",
			Help:      "Inbound audio tracks by binding outcome",
		}, []string{"result"}),
	}
}

func (m *Metrics) SessionAdded() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionsRemoved(n int) {
	if m == nil || n == 0 {
		return
	}
	m.sessionsActive.Sub(float64(n))
}

func (m *Metrics) Negotiation(result string) {
	if m == nil {
		return
	}
	m.negotiations.WithLabelValues(result).Inc()
}

func (m *Metrics) Closed(reason string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.closes.WithLabelValues(reason, result).Inc()
}

func (m *Metrics) AudioTrack(result string) {
	if m == nil {
		return
	}
	m.audioTracks.WithLabelValues(result).Inc()
}

// ActiveGauge is exposed for tests and introspection.
func (m *Metrics) ActiveGauge() prometheus.Gauge { return m.sessionsActive }
