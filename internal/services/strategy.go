// internal/services/strategy.go
package services

import (
	"context"
	"time"

	"github.com/javajoker/querylab/internal/telemetry"
)

// Strategy names which side of a query pair served a request.
type Strategy string

const (
	StrategyInefficient Strategy = "inefficient"
	StrategyOptimized   Strategy = "optimized"
)

// Advisory warnings attached to inefficient results.
const (
	WarningUnboundedList   = "Loads every row with no pagination; response size and latency grow with the table."
	WarningNPlusOne        = "N+1 pattern: issues one query per order and per order item instead of a single eager load."
	WarningUnindexedRange  = "Date range filter scans an unindexed timestamp column."
	WarningOrderSearch     = "Unindexed date and amount filters combined with a deep eager load of users, items, products and categories."
	WarningDeepEagerLoad   = "Deep eager load pulls related orders and order lines far beyond what the detail view needs."
	WarningSubstringSearch = "Leading-wildcard substring match cannot use an index and scans every product."
	WarningCartesianReport = "Loads every product with all order items, orders and users, then aggregates in application memory."
)

const (
	EventQueryStrategy = "query.strategy"
	EventOrderCreated  = "order.created"
	EventCacheHit      = "report.cache_hit"
	EventCacheError    = "report.cache_error"
)

// track returns a func that records the strategy event with the elapsed time.
func track(ctx context.Context, rec telemetry.Recorder, useCase string, strategy Strategy) func(attrs telemetry.Attrs) {
	start := time.Now()
	return func(attrs telemetry.Attrs) {
		out := telemetry.Attrs{
			"use_case":    useCase,
			"strategy":    string(strategy),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		for k, v := range attrs {
			out[k] = v
		}
		rec.Record(ctx, EventQueryStrategy, out)
	}
}
