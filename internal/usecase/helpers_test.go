package usecase

import (
	"context"
	"time"

	"attrgo/internal/domain"
	"attrgo/internal/infrastructure"
	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

// promauto registers against the default registry, so the test binary shares
// one Metrics instance.
var testMetrics = metrics.New()

var testLogger = logger.New("error")

type testEnv struct {
	service        *AttributionService
	configRepo     *infrastructure.ConfigRepository
	touchpointRepo *infrastructure.TouchpointRepository
	conversionRepo *infrastructure.ConversionRepository
	resultRepo     *infrastructure.ResultRepository
}

func newTestEnv() *testEnv {
	configRepo := infrastructure.NewConfigRepository(testLogger)
	touchpointRepo := infrastructure.NewTouchpointRepository(testLogger)
	conversionRepo := infrastructure.NewConversionRepository(testLogger)
	resultRepo := infrastructure.NewResultRepository(testLogger)

	return &testEnv{
		service: NewAttributionService(
			configRepo, touchpointRepo, conversionRepo, resultRepo,
			testLogger, testMetrics, 4,
		),
		configRepo:     configRepo,
		touchpointRepo: touchpointRepo,
		conversionRepo: conversionRepo,
		resultRepo:     resultRepo,
	}
}

var conversionTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// journeyTouchpoints builds touchpoints the given numbers of days before the
// conversion, ascending by timestamp.
func journeyTouchpoints(visitorID string, daysBefore ...float64) []domain.Touchpoint {
	tps := make([]domain.Touchpoint, 0, len(daysBefore))
	for i := len(daysBefore) - 1; i >= 0; i-- {
		days := daysBefore[i]
		tps = append(tps, domain.Touchpoint{
			ID:        "tp-" + time.Duration(float64(time.Hour)*24*days).String(),
			VisitorID: visitorID,
			Timestamp: conversionTime.Add(-time.Duration(float64(time.Hour) * 24 * days)),
			Type:      "page_view",
			URL:       "https://example.com/",
		})
	}
	return tps
}

func testConversion(visitorID string) domain.ConversionEvent {
	return domain.ConversionEvent{
		ConversionID: "conv-1",
		Type:         "signup",
		Timestamp:    conversionTime,
		VisitorID:    visitorID,
	}
}

func storeTouchpoints(env *testEnv, tps []domain.Touchpoint) {
	_ = env.touchpointRepo.Store(context.Background(), tps)
}

func creditSum(attributed []domain.AttributedTouchpoint) float64 {
	var sum float64
	for _, at := range attributed {
		sum += at.Credit
	}
	return sum
}
