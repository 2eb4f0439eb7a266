package tool

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports tool executions to Prometheus. A nil *Metrics is a no-op.
type Metrics struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered with reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	executions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genesis",
		Subsystem: "tool",
		Name:      "executions_total",
		Help:      "Tool executions by tool, caller and outcome.",
	}, []string{"tool", "caller", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "genesis",
		Subsystem: "tool",
		Name:      "execution_duration_seconds",
		Help:      "Tool execution latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})

	m := &Metrics{executions: executions, duration: duration}
	var err error
	if m.executions, err = registerOrReuse(reg, executions); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(toolName, callerID, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(toolName, callerID, outcome).Inc()
	m.duration.WithLabelValues(toolName).Observe(d.Seconds())
}
