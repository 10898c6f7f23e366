package postgresengine

import (
	"context"
	"math"
	"time"
)

// logSQL logs an executed SQL query with timing at debug level.
func (s *Store) logSQL(ctx context.Context, sqlQuery string, duration time.Duration) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (s *Store) logOperation(ctx context.Context, operation string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+operation, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(logMsgOperation+operation, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (s *Store) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// logError logs error information at error level.
func (s *Store) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}
}

// recordDuration records an operation duration metric.
func (s *Store) recordDuration(operation, status string, duration time.Duration) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordDuration(metricOperationDuration, duration, map[string]string{
			logAttrOperation: operation,
			"status":         status,
		})
	}
}

// recordError increments the operation error counter.
func (s *Store) recordError(operation string) {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metricOperationErrors, map[string]string{
			logAttrOperation: operation,
			"status":         statusError,
		})
	}
}

// recordLoanConflict increments the no-available-copy conflict counter.
func (s *Store) recordLoanConflict() {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metricLoanConflicts, map[string]string{
			logAttrOperation: opIssueLoan,
		})
	}
}

// traceOperation starts a span for a store operation and returns a finish
// callback taking the final status. Both are no-ops without a collector.
func (s *Store) traceOperation(ctx context.Context, operation string) (context.Context, func(status string)) {
	if s.tracingCollector == nil {
		return ctx, func(string) {}
	}

	spanCtx, span := s.tracingCollector.StartSpan(ctx, logMsgOperation+operation, map[string]string{
		logAttrOperation: operation,
	})

	return spanCtx, func(status string) {
		if span != nil {
			span.SetStatus(status)
		}
		s.tracingCollector.FinishSpan(span, status, nil)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
