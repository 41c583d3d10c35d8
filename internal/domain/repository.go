package domain

import (
	"context"
	"time"
)

// interface for attribution config storage. The single-default invariant is
// enforced here, at the storage boundary, because multiple engine instances
// may resolve configs concurrently.
type ConfigRepository interface {
	GetByID(ctx context.Context, id string) (*AttributionConfig, error)
	GetDefault(ctx context.Context) (*AttributionConfig, error)
	// Create stores a config. When cfg.IsDefault is set, any previously
	// flagged config is demoted in the same critical section, so the created
	// config is the only default.
	Create(ctx context.Context, cfg AttributionConfig) (*AttributionConfig, error)
	// EnsureDefault returns the active default config, creating cfg when none
	// exists. Concurrent provisioning collapses to one stored config.
	EnsureDefault(ctx context.Context, cfg AttributionConfig) (*AttributionConfig, error)
	Update(ctx context.Context, cfg AttributionConfig) (*AttributionConfig, error)
}

// interface for touchpoint reads. Touchpoint ownership lives with the
// collection side; the engine only queries the window.
type TouchpointRepository interface {
	Store(ctx context.Context, tps []Touchpoint) error
	// QueryByVisitor returns touchpoints for one visitor identity inside
	// [from, to], both bounds inclusive, ascending by timestamp. An empty
	// types slice means no type filter.
	QueryByVisitor(ctx context.Context, visitorKey string, from, to time.Time, types []string) ([]Touchpoint, error)
}

// interface for conversion event storage, used by batch recalculation.
type ConversionRepository interface {
	Store(ctx context.Context, events []ConversionEvent) error
	QueryByTimeRange(ctx context.Context, from, to time.Time) ([]ConversionEvent, error)
}

// interface for attribution result storage. Upsert fully replaces the prior
// breakdown for the conversion; summary and rows land atomically.
type ResultRepository interface {
	Upsert(ctx context.Context, result AttributionResult, configID string) error
	GetByConversionID(ctx context.Context, conversionID string) (*AttributionResult, error)
	QueryByFilter(ctx context.Context, filter ResultFilter) (*ResultPage, error)
}

// interface for pushing computed results to an external sink.
type SinkClient interface {
	Export(ctx context.Context, results []AttributionResult, date time.Time) error
}
