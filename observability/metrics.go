// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns the Prometheus collectors this module exposes:
// agentgit_nodes_created_total, agentgit_publish_duration_seconds,
// agentgit_publish_rollbacks_total, agentgit_comparisons_total{verdict},
// agentgit_checkpoint_size_bytes.
type Metrics struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
	m.counters["agentgit_nodes_created_total"] = m.mustCounter("agentgit_nodes_created_total", "DAG nodes appended.", "action_type")
	m.counters["agentgit_publish_rollbacks_total"] = m.mustCounter("agentgit_publish_rollbacks_total", "Event bus publishes rolled back.")
	m.counters["agentgit_comparisons_total"] = m.mustCounter("agentgit_comparisons_total", "Recording comparisons completed.", "verdict")
	m.histograms["agentgit_publish_duration_seconds"] = m.mustHistogram("agentgit_publish_duration_seconds", "Event bus publish latency.", prometheus.DefBuckets)
	m.histograms["agentgit_checkpoint_size_bytes"] = m.mustHistogram("agentgit_checkpoint_size_bytes", "Checkpoint snapshot size.", prometheus.ExponentialBuckets(1024, 4, 10))
	return m
}

func (m *Metrics) mustCounter(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	m.registry.MustRegister(c)
	return c
}

func (m *Metrics) mustHistogram(name, help string, buckets []float64) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, nil)
	m.registry.MustRegister(h)
	return h
}

// Registry exposes the underlying registry for an httpapi /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Inc(name string, labels ...string) {
	c, ok := m.counters[name]
	if !ok {
		return
	}
	c.WithLabelValues(labels...).Inc()
}

func (m *Metrics) Observe(name string, v float64) {
	h, ok := m.histograms[name]
	if !ok {
		return
	}
	h.WithLabelValues().Observe(v)
}

func (m *Metrics) StartTimer(name string) func() {
	h, ok := m.histograms[name]
	if !ok {
		return func() {}
	}
	start := time.Now()
	return func() {
		h.WithLabelValues().Observe(time.Since(start).Seconds())
	}
}
