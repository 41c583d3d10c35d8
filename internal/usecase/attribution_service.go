package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
	"attrgo/pkg/metrics"
)

// AttributionService runs the attribution pipeline: resolve config, select
// the touchpoint window, apply the model, weight channels, build and persist
// the result. One invocation is a pure function of its inputs plus storage
// reads and writes keyed by conversion id, so distinct conversions may be
// computed fully in parallel.
type AttributionService struct {
	configRepo     domain.ConfigRepository
	touchpointRepo domain.TouchpointRepository
	conversionRepo domain.ConversionRepository
	resultRepo     domain.ResultRepository
	logger         *logger.Logger
	metrics        *metrics.Metrics
	workerPool     int
}

func NewAttributionService(
	configRepo domain.ConfigRepository,
	touchpointRepo domain.TouchpointRepository,
	conversionRepo domain.ConversionRepository,
	resultRepo domain.ResultRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	workerPool int,
) *AttributionService {
	if workerPool < 1 {
		workerPool = 1
	}
	return &AttributionService{
		configRepo:     configRepo,
		touchpointRepo: touchpointRepo,
		conversionRepo: conversionRepo,
		resultRepo:     resultRepo,
		logger:         logger,
		metrics:        metrics,
		workerPool:     workerPool,
	}
}

// ComputeAttribution attributes a single conversion and persists the result.
// Recomputation with identical inputs is idempotent: the stored result is
// replaced, never duplicated.
func (s *AttributionService) ComputeAttribution(ctx context.Context, event domain.ConversionEvent, configID string) (*domain.AttributionResult, error) {
	start := time.Now()
	s.metrics.IncComputationsInFlight()
	defer s.metrics.DecComputationsInFlight()

	log := s.logger.WithContext(ctx).WithField("conversion_id", event.ConversionID)

	cfg, err := s.ResolveConfig(ctx, configID)
	if err != nil {
		s.metrics.RecordComputation("unknown", "config_error", time.Since(start))
		return nil, err
	}

	model := cfg.Model
	if modelFallsBack(model) {
		log.WithField("attribution_model", string(model)).
			Warn("Unimplemented attribution model, falling back to last_touch")
		s.metrics.RecordModelFallback(string(model))
		model = domain.ModelLastTouch
	}

	// record the conversion so batch recalculation can revisit it; storing an
	// already-known conversion id is a no-op
	if err := s.conversionRepo.Store(ctx, []domain.ConversionEvent{event}); err != nil {
		s.metrics.RecordComputation(string(model), "conversion_store_error", time.Since(start))
		return nil, fmt.Errorf("failed to record conversion: %w", err)
	}

	tps, err := s.selectTouchpoints(ctx, &event, cfg)
	if err != nil {
		s.metrics.RecordComputation(string(model), "touchpoint_error", time.Since(start))
		return nil, fmt.Errorf("failed to select touchpoints: %w", err)
	}
	s.metrics.RecordTouchpointsSelected(len(tps))

	var result *domain.AttributionResult
	if len(tps) == 0 {
		result = s.directResult(&event, model)
		log.Info("No touchpoints in window, using direct attribution")
	} else {
		attributed := applyModel(model, tps, &event)
		totalCredit := applyChannelWeights(cfg, attributed)
		if totalCredit == 0 {
			log.Warn("All channel weights resolved to zero, result is unattributable")
			s.metrics.RecordZeroCreditAnomaly()
		}
		result = buildResult(&event, cfg, model, tps, attributed, totalCredit)
	}

	if err := s.resultRepo.Upsert(ctx, *result, cfg.ID); err != nil {
		s.metrics.RecordComputation(string(model), "persist_error", time.Since(start))
		return nil, fmt.Errorf("failed to persist attribution result: %w", err)
	}

	s.metrics.RecordComputation(string(model), "success", time.Since(start))
	log.WithFields(map[string]any{
		"attribution_model": string(model),
		"touchpoints":       result.TouchpointsCount,
		"total_credit":      result.TotalCredit,
		"unique_channels":   result.UniqueChannels,
	}).Info("Attribution computed")

	return result, nil
}

// RecordTouchpoints stores raw touchpoints from the collection side.
func (s *AttributionService) RecordTouchpoints(ctx context.Context, tps []domain.Touchpoint) error {
	if err := s.touchpointRepo.Store(ctx, tps); err != nil {
		return fmt.Errorf("failed to store touchpoints: %w", err)
	}
	return nil
}

// ResolveConfig loads the config for a run. An explicit id must exist and be
// active; with no id the default config is used, auto-provisioned on first
// use. The single-default invariant is the config store's responsibility.
func (s *AttributionService) ResolveConfig(ctx context.Context, configID string) (*domain.AttributionConfig, error) {
	if configID != "" {
		cfg, err := s.configRepo.GetByID(ctx, configID)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", configID, err)
		}
		if !cfg.IsActive {
			return nil, fmt.Errorf("config %s is inactive: %w", configID, domain.ErrConfigNotFound)
		}
		return cfg, nil
	}

	cfg, err := s.configRepo.GetDefault(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, domain.ErrNoDefaultConfig) {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	created, err := s.configRepo.EnsureDefault(ctx, domain.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to provision default config: %w", err)
	}
	s.logger.WithContext(ctx).WithField("config_id", created.ID).Info("Provisioned default attribution config")
	return created, nil
}

// selectTouchpoints fetches the classified, deduplicated touchpoints inside
// the click-through lookback window, ascending by timestamp. A conversion
// with no visitor identity yields an empty list.
func (s *AttributionService) selectTouchpoints(ctx context.Context, event *domain.ConversionEvent, cfg *domain.AttributionConfig) ([]domain.Touchpoint, error) {
	visitorKey := event.VisitorKey()
	if visitorKey == "" {
		return nil, nil
	}

	from := cfg.LookbackStart(event.Timestamp)
	tps, err := s.touchpointRepo.QueryByVisitor(ctx, visitorKey, from, event.Timestamp, cfg.TouchpointTypes)
	if err != nil {
		return nil, err
	}

	for i := range tps {
		classifyTouchpoint(cfg, &tps[i])
	}
	return deduplicateTouchpoints(cfg, tps), nil
}

// directResult is the fallback when no touchpoints exist: full credit to a
// synthetic direct channel.
func (s *AttributionService) directResult(event *domain.ConversionEvent, model domain.AttributionModel) *domain.AttributionResult {
	return &domain.AttributionResult{
		ConversionID:     event.ConversionID,
		Model:            model,
		TouchpointsCount: 0,
		TouchpointCount:  0,
		TotalCredit:      1.0,
		ChannelBreakdown: map[string]float64{domain.ChannelDirect: 1.0},
		UniqueChannels:   1,
		ConversionValue:  event.Value,
		ComputedAt:       time.Now().UTC(),
	}
}
