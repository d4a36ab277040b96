// Package kprofiler contains kquery.Profiler implementations for
// structured logging and metrics.
package kprofiler

import (
	"time"

	"github.com/vingarcia/kquery"
	"go.uber.org/zap"
)

var _ kquery.Profiler = ZapProfiler{}

// ZapProfiler logs every query once it finishes.
//
// Successful queries are logged with the Debug level and
// failed queries with the Warn level.
type ZapProfiler struct {
	logger *zap.Logger
}

// NewZapProfiler instantiates a profiler that writes to the input logger
func NewZapProfiler(logger *zap.Logger) ZapProfiler {
	return ZapProfiler{
		logger: logger,
	}
}

// Profile implements the kquery.Profiler interface
func (z ZapProfiler) Profile(event string, payload kquery.ProfilerPayload) kquery.ProfilerAction {
	start := time.Now()
	return kquery.ActionFunc(func(err error) {
		fields := []zap.Field{
			zap.String("event", event),
			zap.String("sql", payload.Query),
			zap.Any("bindings", payload.Bindings),
			zap.String("connection", payload.Connection),
			zap.Bool("in_transaction", payload.InTransaction),
			zap.Duration("duration", time.Since(start)),
		}

		if err != nil {
			z.logger.Warn("query failed", append(fields, zap.Error(err))...)
			return
		}

		z.logger.Debug("query executed", fields...)
	})
}
