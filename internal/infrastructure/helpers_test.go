package infrastructure

import (
	"time"

	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

var testLogger = logger.New("error")

// promauto registers against the default registry, so the test binary shares
// one Metrics instance.
var testMetrics = metrics.New()

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
