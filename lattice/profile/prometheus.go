// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package profile

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus observes interval durations into a histogram labelled by
// interval name.
type Prometheus struct {
	hist *prometheus.HistogramVec

	mu   sync.Mutex
	open map[string]time.Time
}

// NewPrometheus registers the histogram <namespace>_interval_seconds with reg.
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "interval_seconds",
		Help:      "Duration of the named intervals of stencil applications.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	}, []string{"interval"})
	if err := reg.Register(hist); err != nil {
		return nil, err
	}
	return &Prometheus{hist: hist, open: make(map[string]time.Time)}, nil
}

func (p *Prometheus) Start(name string) {
	p.mu.Lock()
	p.open[name] = time.Now()
	p.mu.Unlock()
}

func (p *Prometheus) Stop(name string) {
	p.mu.Lock()
	start, ok := p.open[name]
	delete(p.open, name)
	p.mu.Unlock()
	if ok {
		p.hist.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// Fork returns a Prometheus that observes into the same histogram but keeps
// its own open intervals, so that concurrent applications can each hold one.
func (p *Prometheus) Fork() *Prometheus {
	return &Prometheus{hist: p.hist, open: make(map[string]time.Time)}
}

// Collector returns the underlying histogram.
func (p *Prometheus) Collector() prometheus.Collector { return p.hist }
