// Package telemetry provides hierarchical timing collection for a calculation
// run. Collectors travel through a context so the loader, normalizer and
// ledger can be instrumented without changing their signatures.
//
// Example usage:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	timer := telemetry.StartTimer(ctx, "calculate")
//	ctx = telemetry.WithRootTimer(ctx, timer)
//	// ... telemetry.StartTimer(ctx, "normalize") nests under "calculate"
//	timer.End()
//
//	collector.Report(os.Stderr, nil)
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/capitalg/output"
)

type contextKey int

const (
	collectorKey contextKey = iota
	rootTimerKey
)

// Collector collects timings.
type Collector interface {
	// Start begins timing an operation. The returned timer must be ended.
	Start(name string) Timer

	// Report writes the collected timings to w. styles may be nil for plain
	// output.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation. Timers nest via Child.
type Timer interface {
	End()
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext returns the collector in ctx, or a collector that does nothing.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// WithRootTimer makes timer the parent of timers started with StartTimer.
func WithRootTimer(ctx context.Context, timer Timer) context.Context {
	return context.WithValue(ctx, rootTimerKey, timer)
}

// StartTimer starts a timer as a child of the root timer in ctx, falling back
// to the collector in ctx.
func StartTimer(ctx context.Context, name string) Timer {
	if root, ok := ctx.Value(rootTimerKey).(Timer); ok {
		return root.Child(name)
	}
	return FromContext(ctx).Start(name)
}
