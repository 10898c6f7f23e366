package postgresengine

import (
	"time"

	"github.com/arkadyvb/libris/library"
)

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithSchemaNames overrides the default schema names for the domain tables,
// the audit log tables and the staff identity tables.
func WithSchemaNames(librarySchema, auditSchema, staffSchema string) Option {
	return func(s *Store) error {
		if librarySchema == "" || auditSchema == "" || staffSchema == "" {
			return library.ErrEmptySchemaNameSupplied
		}

		s.librarySchema = librarySchema
		s.auditSchema = auditSchema
		s.staffSchema = staffSchema

		return nil
	}
}

// WithWarehouseShelfID designates the shelf used as the default placement
// when a copy is added without an explicit shelf.
func WithWarehouseShelfID(shelfID int64) Option {
	return func(s *Store) error {
		s.warehouseShelfID = shelfID
		return nil
	}
}

// WithClock overrides the time source used for loan dates, fine dates,
// registration dates and audit timestamps. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) error {
		s.clock = clock
		return nil
	}
}

// WithLogger sets the logger for the Store.
//
// Debug level: SQL queries with execution timing (development use)
// Info level: operation outcomes and durations (production-safe)
// Warn level: non-critical issues like rollback or cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger library.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Store, enabling
// automatic trace/span correlation when tracing is configured as well.
func WithContextualLogger(logger library.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store. The collector
// receives operation durations, error counters and loan-conflict counters.
func WithMetrics(collector library.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store. The collector
// receives one span per store operation with outcome attributes.
func WithTracing(collector library.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
