package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"attrgo/internal/domain"
)

func TestConversionRepositoryStoreIsImmutable(t *testing.T) {
	repo := NewConversionRepository(testLogger)
	ctx := context.Background()

	original := domain.ConversionEvent{
		ConversionID: "conv-1",
		Type:         "signup",
		Value:        10,
		Timestamp:    baseTime,
		VisitorID:    "v1",
	}
	require.NoError(t, repo.Store(ctx, []domain.ConversionEvent{original}))

	mutated := original
	mutated.Value = 999
	require.NoError(t, repo.Store(ctx, []domain.ConversionEvent{mutated}))

	stored, err := repo.QueryByTimeRange(ctx, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.InDelta(t, 10.0, stored[0].Value, 1e-9)
}

func TestConversionRepositoryQueryByTimeRange(t *testing.T) {
	repo := NewConversionRepository(testLogger)
	ctx := context.Background()

	events := []domain.ConversionEvent{
		{ConversionID: "conv-1", Type: "signup", Timestamp: baseTime.Add(-2 * time.Hour), VisitorID: "v1"},
		{ConversionID: "conv-2", Type: "signup", Timestamp: baseTime.Add(-time.Hour), VisitorID: "v2"},
		{ConversionID: "conv-3", Type: "signup", Timestamp: baseTime, VisitorID: "v3"},
	}
	require.NoError(t, repo.Store(ctx, events))

	// bounds are inclusive, output is ascending by timestamp
	stored, err := repo.QueryByTimeRange(ctx, baseTime.Add(-time.Hour), baseTime)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "conv-2", stored[0].ConversionID)
	require.Equal(t, "conv-3", stored[1].ConversionID)
}
