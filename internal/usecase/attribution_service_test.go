package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"attrgo/internal/domain"
)

func TestComputeAttributionDirectWhenNoTouchpoints(t *testing.T) {
	env := newTestEnv()
	event := testConversion("v1")

	result, err := env.service.ComputeAttribution(context.Background(), event, "")
	require.NoError(t, err)

	require.Equal(t, "conv-1", result.ConversionID)
	require.Zero(t, result.TouchpointsCount)
	require.InDelta(t, 1.0, result.TotalCredit, domain.CreditTolerance)
	require.Equal(t, map[string]float64{domain.ChannelDirect: 1.0}, result.ChannelBreakdown)
	require.Equal(t, 1, result.UniqueChannels)
}

func TestComputeAttributionAutoProvisionsDefaultConfig(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), "")
	require.NoError(t, err)

	cfg, err := env.configRepo.GetDefault(context.Background())
	require.NoError(t, err)
	require.True(t, cfg.IsDefault)
	require.Equal(t, domain.ModelLastTouch, cfg.Model)
	require.NotEmpty(t, cfg.ID)
}

func TestComputeAttributionRejectsUnknownConfig(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), "missing")
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestComputeAttributionRejectsInactiveConfig(t *testing.T) {
	env := newTestEnv()
	cfg := domain.DefaultConfig()
	cfg.IsDefault = false
	cfg.IsActive = false
	created, err := env.configRepo.Create(context.Background(), cfg)
	require.NoError(t, err)

	_, err = env.service.ComputeAttribution(context.Background(), testConversion("v1"), created.ID)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestComputeAttributionLinearJourney(t *testing.T) {
	env := newTestEnv()
	cfg := domain.DefaultConfig()
	cfg.Model = domain.ModelLinear
	cfg.ChannelWeights = nil
	created, err := env.configRepo.Create(context.Background(), cfg)
	require.NoError(t, err)

	storeTouchpoints(env, journeyTouchpoints("v1", 0, 5, 10))
	result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), created.ID)
	require.NoError(t, err)

	require.Equal(t, 3, result.TouchpointsCount)
	require.Equal(t, result.TouchpointsCount, result.TouchpointCount)
	require.InDelta(t, 1.0, result.TotalCredit, domain.CreditTolerance)
	require.Len(t, result.Touchpoints, 3)
	require.NotNil(t, result.FirstTouch)
	require.Equal(t, 1, result.FirstTouch.Position)
	// linear assigns no last-touch sentinel
	require.Nil(t, result.LastTouch)
	require.Equal(t, int64(10*24*60), result.JourneyDurationMinutes)
	// url-path classification lands every touchpoint on direct
	require.InDelta(t, 1.0, result.ChannelBreakdown[domain.ChannelDirect], domain.CreditTolerance)
	require.Equal(t, 1, result.UniqueChannels)
}

func TestComputeAttributionWindowBoundsInclusive(t *testing.T) {
	env := newTestEnv()

	// exactly 30 days back is in the window, a minute older is not
	inWindow := journeyTouchpoints("v1", 30)
	outOfWindow := domain.Touchpoint{
		ID:        "tp-old",
		VisitorID: "v1",
		Type:      "page_view",
		Timestamp: conversionTime.AddDate(0, 0, -30).Add(-time.Minute),
	}
	storeTouchpoints(env, append(inWindow, outOfWindow))

	result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), "")
	require.NoError(t, err)

	require.Equal(t, 1, result.TouchpointsCount)
	require.Equal(t, inWindow[0].ID, result.Touchpoints[0].TouchpointID)
}

func TestComputeAttributionIgnoresOtherVisitors(t *testing.T) {
	env := newTestEnv()
	storeTouchpoints(env, journeyTouchpoints("v2", 0, 3))

	result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), "")
	require.NoError(t, err)
	require.Zero(t, result.TouchpointsCount)
}

func TestComputeAttributionAnonymousVisitorFallback(t *testing.T) {
	env := newTestEnv()
	storeTouchpoints(env, []domain.Touchpoint{{
		ID:                 "tp-anon",
		AnonymousVisitorID: "anon-1",
		Type:               "page_view",
		Timestamp:          conversionTime.Add(-time.Hour),
	}})

	event := testConversion("")
	event.AnonymousVisitorID = "anon-1"

	result, err := env.service.ComputeAttribution(context.Background(), event, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.TouchpointsCount)
}

func TestComputeAttributionIsIdempotent(t *testing.T) {
	env := newTestEnv()
	storeTouchpoints(env, journeyTouchpoints("v1", 0, 2))
	event := testConversion("v1")

	first, err := env.service.ComputeAttribution(context.Background(), event, "")
	require.NoError(t, err)
	second, err := env.service.ComputeAttribution(context.Background(), event, "")
	require.NoError(t, err)

	require.Equal(t, first.ConversionID, second.ConversionID)
	require.InDelta(t, first.TotalCredit, second.TotalCredit, domain.CreditTolerance)

	page, err := env.resultRepo.QueryByFilter(context.Background(), domain.ResultFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
}

func TestComputeAttributionFallsBackForUnimplementedModel(t *testing.T) {
	env := newTestEnv()
	cfg := domain.DefaultConfig()
	cfg.Model = domain.ModelDataDriven
	cfg.ChannelWeights = nil
	created, err := env.configRepo.Create(context.Background(), cfg)
	require.NoError(t, err)

	storeTouchpoints(env, journeyTouchpoints("v1", 0, 5))
	result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), created.ID)
	require.NoError(t, err)

	require.Equal(t, domain.ModelLastTouch, result.Model)
	require.Len(t, result.Touchpoints, 1)
	require.Equal(t, domain.LastTouchPosition, result.Touchpoints[0].Position)
}

func TestComputeAttributionTouchpointTypeFilter(t *testing.T) {
	env := newTestEnv()
	cfg := domain.DefaultConfig()
	cfg.Model = domain.ModelLinear
	cfg.ChannelWeights = nil
	cfg.TouchpointTypes = []string{"ad_click"}
	created, err := env.configRepo.Create(context.Background(), cfg)
	require.NoError(t, err)

	tps := journeyTouchpoints("v1", 0, 2, 4)
	tps[1].Type = "ad_click"
	storeTouchpoints(env, tps)

	result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.TouchpointsCount)
	require.Equal(t, tps[1].ID, result.Touchpoints[0].TouchpointID)
}

func TestComputeAttributionUsesConfiguredConversionValue(t *testing.T) {
	env := newTestEnv()
	cfg := domain.DefaultConfig()
	cfg.Model = domain.ModelLinear
	cfg.ChannelWeights = nil
	cfg.ConversionValues = map[string]float64{"signup": 50}
	created, err := env.configRepo.Create(context.Background(), cfg)
	require.NoError(t, err)

	storeTouchpoints(env, journeyTouchpoints("v1", 0, 5))
	result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), created.ID)
	require.NoError(t, err)

	require.InDelta(t, 50.0, result.ConversionValue, 1e-9)
	var attributedTotal float64
	for _, at := range result.Touchpoints {
		attributedTotal += at.AttributedValue
	}
	require.InDelta(t, 50.0, attributedTotal, 1e-9)
}

func TestComputeAttributionSumValuesKeepsStoredTouchpointsIntact(t *testing.T) {
	env := newTestEnv()
	cfg := domain.DefaultConfig()
	cfg.Model = domain.ModelLinear
	cfg.ChannelWeights = nil
	cfg.DeduplicationWindowHours = 2
	cfg.DuplicateHandling = domain.DuplicateSumValues
	created, err := env.configRepo.Create(context.Background(), cfg)
	require.NoError(t, err)

	storeTouchpoints(env, []domain.Touchpoint{
		{
			ID: "tp-a", VisitorID: "v1", Type: "ad_click",
			Timestamp: conversionTime.Add(-50 * time.Minute),
			Metadata:  map[string]any{"value": 2.0},
		},
		{
			ID: "tp-b", VisitorID: "v1", Type: "ad_click",
			Timestamp: conversionTime.Add(-20 * time.Minute),
			Metadata:  map[string]any{"value": 3.0},
		},
	})

	// recompute twice; dedup must never write through to storage
	for i := 0; i < 2; i++ {
		result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), created.ID)
		require.NoError(t, err)
		require.Equal(t, 1, result.TouchpointsCount)
	}

	stored, err := env.touchpointRepo.QueryByVisitor(
		context.Background(), "v1", conversionTime.Add(-time.Hour), conversionTime, nil)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.InDelta(t, 2.0, stored[0].MetadataNumber("value"), 1e-9)
	require.InDelta(t, 3.0, stored[1].MetadataNumber("value"), 1e-9)
}

func TestComputeAttributionZeroWeightsPersistUnattributable(t *testing.T) {
	env := newTestEnv()
	cfg := domain.DefaultConfig()
	cfg.Model = domain.ModelLinear
	cfg.ChannelWeights = domain.ChannelWeights{domain.ChannelDirect: 0}
	created, err := env.configRepo.Create(context.Background(), cfg)
	require.NoError(t, err)

	storeTouchpoints(env, journeyTouchpoints("v1", 0, 5))
	result, err := env.service.ComputeAttribution(context.Background(), testConversion("v1"), created.ID)
	require.NoError(t, err)

	require.Zero(t, result.TotalCredit)

	stored, err := env.resultRepo.GetByConversionID(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Zero(t, stored.TotalCredit)
}
