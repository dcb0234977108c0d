package core

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// NopMetricsRecorder drops every measurement. It is the default recorder so
// gateways without a metrics backend pay no bookkeeping cost.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// MemoryMetricsRecorder accumulates gateway counters and histogram samples in
// process memory. Intended for tests and local runs, not production scrape
// targets.
type MemoryMetricsRecorder struct {
	mu         sync.Mutex
	counters   map[string]int64
	histograms map[string][]float64
}

func NewMemoryMetricsRecorder() *MemoryMetricsRecorder {
	return &MemoryMetricsRecorder{
		counters:   map[string]int64{},
		histograms: map[string][]float64{},
	}
}

func (m *MemoryMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, tags)] += value
}

func (m *MemoryMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricKey(name, tags)
	m.histograms[key] = append(m.histograms[key], value)
}

// Counter returns the accumulated value for a metric name + tag set.
func (m *MemoryMetricsRecorder) Counter(name string, tags map[string]string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[metricKey(name, tags)]
}

// Samples returns the recorded histogram observations for a metric name + tag set.
func (m *MemoryMetricsRecorder) Samples(name string, tags map[string]string) []float64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	recorded := m.histograms[metricKey(name, tags)]
	out := make([]float64, len(recorded))
	copy(out, recorded)
	return out
}

// metricKey is stable across tag iteration order so lookups with an equal tag
// set always hit the same series.
func metricKey(name string, tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(strings.TrimSpace(name))
	for _, key := range keys {
		b.WriteString("|")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(tags[key])
	}
	return b.String()
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var (
	_ MetricsRecorder = NopMetricsRecorder{}
	_ MetricsRecorder = (*MemoryMetricsRecorder)(nil)
)
