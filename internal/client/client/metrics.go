package client

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts gateway calls by operation and outcome and records their
// latency. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the gateway collectors and registers them on reg.
// Registering twice on the same registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contactbook",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Remote API calls by operation and outcome.",
	}, []string{"op", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contactbook",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Latency of remote API calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, duration: duration}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	switch common.Kind(err) {
	case nil:
		if err != nil {
			return "error"
		}
		return "ok"
	case common.ErrUnauthenticated:
		return "unauthenticated"
	case common.ErrInvalid:
		return "invalid"
	case common.ErrConflict:
		return "conflict"
	case common.ErrNotFound:
		return "not_found"
	case common.ErrNetwork:
		return "network"
	}
	return "unknown"
}
