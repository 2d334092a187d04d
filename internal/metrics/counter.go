package metrics

import (
	"context"
	"sync"

	"restobar-be/internal/logger"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

const meterName = "restobar-be"

// Counter is a monotonic OpenTelemetry counter owned by a Set.
type Counter struct {
	name string
	inst metric.Int64Counter
	set  *Set
}

func (c *Counter) Inc() {
	c.inst.Add(context.Background(), 1)
}

func (c *Counter) Add(n uint64) {
	c.inst.Add(context.Background(), int64(n))
}

// Load collects the current cumulative value.
func (c *Counter) Load() uint64 {
	return c.set.Snapshot()[c.name]
}

// Set is a named group of counters, created on first use. Values are read
// back through a manual reader, so no exporter is needed to serve them.
type Set struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	mu       sync.RWMutex
	counters map[string]*Counter
}

func NewSet() *Set {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return &Set{
		reader:   reader,
		provider: provider,
		meter:    provider.Meter(meterName),
		counters: make(map[string]*Counter),
	}
}

func (s *Set) Counter(name string) *Counter {
	s.mu.RLock()
	c, ok := s.counters[name]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.counters[name]; ok {
		return c
	}

	inst, err := s.meter.Int64Counter(name)
	if err != nil {
		// the SDK still returns a usable instrument alongside a name error
		logger.L().Warn("metric instrument", zap.String("name", name), zap.Error(err))
	}
	c = &Counter{name: name, inst: inst, set: s}
	s.counters[name] = c
	return c
}

// Snapshot returns the current value of every counter, keyed by name.
// Counters that were created but never incremented report zero.
func (s *Set) Snapshot() map[string]uint64 {
	s.mu.RLock()
	out := make(map[string]uint64, len(s.counters))
	for name := range s.counters {
		out[name] = 0
	}
	s.mu.RUnlock()

	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(context.Background(), &rm); err != nil {
		logger.L().Warn("metric collection failed", zap.Error(err))
		return out
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			out[m.Name] = uint64(total)
		}
	}
	return out
}

func (s *Set) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}
