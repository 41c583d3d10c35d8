package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"attrgo/internal/domain"
)

func sampleResult(conversionID string, computedAt time.Time) domain.AttributionResult {
	return domain.AttributionResult{
		ConversionID:     conversionID,
		Model:            domain.ModelLinear,
		TouchpointsCount: 2,
		TouchpointCount:  2,
		TotalCredit:      1.0,
		Touchpoints: []domain.AttributedTouchpoint{
			{TouchpointID: "tp-1", Credit: 0.5, Position: 1, Channel: domain.ChannelSearch},
			{TouchpointID: "tp-2", Credit: 0.5, Position: 2, Channel: domain.ChannelEmail},
		},
		ChannelBreakdown:       map[string]float64{domain.ChannelSearch: 0.5, domain.ChannelEmail: 0.5},
		JourneyDurationMinutes: 90,
		UniqueChannels:         2,
		ComputedAt:             computedAt,
	}
}

func TestResultRepositoryUpsertReplaces(t *testing.T) {
	repo := NewResultRepository(testLogger)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleResult("conv-1", baseTime), "cfg-1"))

	replacement := sampleResult("conv-1", baseTime.Add(time.Hour))
	replacement.Model = domain.ModelTimeDecay
	require.NoError(t, repo.Upsert(ctx, replacement, "cfg-2"))

	stored, err := repo.GetByConversionID(ctx, "conv-1")
	require.NoError(t, err)
	require.Equal(t, domain.ModelTimeDecay, stored.Model)

	page, err := repo.QueryByFilter(ctx, domain.ResultFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
}

func TestResultRepositoryGetMissing(t *testing.T) {
	repo := NewResultRepository(testLogger)

	_, err := repo.GetByConversionID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrResultNotFound)
}

func TestResultRepositorySnapshotRoundTrip(t *testing.T) {
	repo := NewResultRepository(testLogger)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleResult("conv-1", baseTime), "cfg-1"))

	data, err := repo.AttributionData(ctx, "conv-1")
	require.NoError(t, err)

	var snapshot domain.AttributionSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	require.Equal(t, 2, snapshot.UniqueChannels)
	require.Equal(t, int64(90), snapshot.JourneyDurationMinutes)
	require.InDelta(t, 0.5, snapshot.ChannelBreakdown[domain.ChannelSearch], 1e-9)
}

func TestResultRepositoryFilterByModelAndChannel(t *testing.T) {
	repo := NewResultRepository(testLogger)
	ctx := context.Background()

	linear := sampleResult("conv-1", baseTime)
	decay := sampleResult("conv-2", baseTime.Add(time.Minute))
	decay.Model = domain.ModelTimeDecay
	decay.ChannelBreakdown = map[string]float64{domain.ChannelSocial: 1.0}
	require.NoError(t, repo.Upsert(ctx, linear, "cfg-1"))
	require.NoError(t, repo.Upsert(ctx, decay, "cfg-1"))

	page, err := repo.QueryByFilter(ctx, domain.ResultFilter{Model: string(domain.ModelTimeDecay)})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "conv-2", page.Data[0].ConversionID)

	page, err = repo.QueryByFilter(ctx, domain.ResultFilter{Channel: domain.ChannelEmail})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "conv-1", page.Data[0].ConversionID)
}

func TestResultRepositoryFilterByTimeRange(t *testing.T) {
	repo := NewResultRepository(testLogger)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := sampleResult(fmt.Sprintf("conv-%d", i), baseTime.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Upsert(ctx, result, "cfg-1"))
	}

	from := baseTime.Add(30 * time.Minute)
	to := baseTime.Add(90 * time.Minute)
	page, err := repo.QueryByFilter(ctx, domain.ResultFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "conv-1", page.Data[0].ConversionID)
}

func TestResultRepositoryPagination(t *testing.T) {
	repo := NewResultRepository(testLogger)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result := sampleResult(fmt.Sprintf("conv-%d", i), baseTime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Upsert(ctx, result, "cfg-1"))
	}

	page, err := repo.QueryByFilter(ctx, domain.ResultFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	require.Equal(t, 5, page.Total)
	require.True(t, page.HasMore)
	require.Equal(t, "conv-0", page.Data[0].ConversionID)

	page, err = repo.QueryByFilter(ctx, domain.ResultFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.False(t, page.HasMore)

	// negative limit disables pagination
	page, err = repo.QueryByFilter(ctx, domain.ResultFilter{Limit: -1})
	require.NoError(t, err)
	require.Len(t, page.Data, 5)
}
