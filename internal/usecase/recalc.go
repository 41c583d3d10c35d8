package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"attrgo/internal/domain"
)

// RecalculateRange re-runs attribution for every stored conversion whose
// timestamp falls in [from, to] under the resolved config. Per-conversion
// failures are counted, not fatal; the batch as a whole is not transactional
// and is safe to re-run because per-conversion writes are idempotent upserts.
// Cancelling ctx stops dispatching new conversions without corrupting results
// already persisted.
func (s *AttributionService) RecalculateRange(ctx context.Context, from, to time.Time, configID string) (*domain.RecalculationStats, error) {
	start := time.Now()
	log := s.logger.WithContext(ctx)

	cfg, err := s.ResolveConfig(ctx, configID)
	if err != nil {
		s.metrics.RecordRecalculation("config_error", time.Since(start))
		return nil, err
	}

	conversions, err := s.conversionRepo.QueryByTimeRange(ctx, from, to)
	if err != nil {
		s.metrics.RecordRecalculation("query_error", time.Since(start))
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}

	eligible := conversions[:0:0]
	for _, conversion := range conversions {
		if cfg.AppliesTo(conversion.Type) {
			eligible = append(eligible, conversion)
		}
	}

	log.WithFields(map[string]any{
		"from":      from.Format(time.RFC3339),
		"to":        to.Format(time.RFC3339),
		"config_id": cfg.ID,
		"eligible":  len(eligible),
		"workers":   s.workerPool,
	}).Info("Starting batch recalculation")

	jobs := make(chan domain.ConversionEvent)
	outcomes := make(chan error, len(eligible))

	var wg sync.WaitGroup
	for i := 0; i < s.workerPool; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conversion := range jobs {
				_, err := s.ComputeAttribution(ctx, conversion, cfg.ID)
				if err != nil {
					log.WithError(err).WithField("conversion_id", conversion.ConversionID).
						Error("Recalculation failed for conversion")
				}
				outcomes <- err
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, conversion := range eligible {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- conversion:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	stats := &domain.RecalculationStats{}
	for err := range outcomes {
		stats.Processed++
		if err != nil {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
	}

	status := "success"
	if ctx.Err() != nil {
		status = "cancelled"
	} else if stats.Failed > 0 {
		status = "partial"
	}
	s.metrics.RecordRecalculation(status, time.Since(start))
	s.metrics.RecordRecalculatedConversions("succeeded", stats.Succeeded)
	s.metrics.RecordRecalculatedConversions("failed", stats.Failed)

	log.WithFields(map[string]any{
		"processed": stats.Processed,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"duration":  time.Since(start),
		"status":    status,
	}).Info("Batch recalculation finished")

	return stats, nil
}
