package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
)

// storedResult is one persisted attribution outcome: the discrete result, the
// config that produced it, and the serialized attribution_data snapshot kept
// for schema evolution.
type storedResult struct {
	result          domain.AttributionResult
	configID        string
	attributionData []byte
}

// implements domain.ResultRepository with upsert-by-conversion-id semantics.
// The summary and the touchpoint breakdown are replaced under one lock, so a
// reader never observes a summary paired with stale breakdown rows.
type ResultRepository struct {
	results map[string]storedResult
	mutex   sync.RWMutex
	logger  *logger.Logger
}

func NewResultRepository(logger *logger.Logger) *ResultRepository {
	return &ResultRepository{
		results: make(map[string]storedResult),
		logger:  logger,
	}
}

func (r *ResultRepository) Upsert(ctx context.Context, result domain.AttributionResult, configID string) error {
	snapshot, err := json.Marshal(result.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to serialize attribution snapshot: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, replaced := r.results[result.ConversionID]
	r.results[result.ConversionID] = storedResult{
		result:          result,
		configID:        configID,
		attributionData: snapshot,
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"conversion_id": result.ConversionID,
		"config_id":     configID,
		"touchpoints":   len(result.Touchpoints),
		"replaced":      replaced,
	}).Debug("Upserted attribution result")
	return nil
}

func (r *ResultRepository) GetByConversionID(ctx context.Context, conversionID string) (*domain.AttributionResult, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored, ok := r.results[conversionID]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	result := stored.result
	return &result, nil
}

// QueryByFilter returns stored results ordered by computation time. A
// negative filter limit disables pagination.
func (r *ResultRepository) QueryByFilter(ctx context.Context, filter domain.ResultFilter) (*domain.ResultPage, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var matched []domain.AttributionResult
	for _, stored := range r.results {
		if matchesFilter(&stored.result, filter) {
			matched = append(matched, stored.result)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ComputedAt.Before(matched[j].ComputedAt)
	})

	total := len(matched)
	if filter.Limit < 0 {
		return &domain.ResultPage{Data: matched, Total: total, Limit: total}, nil
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &domain.ResultPage{
		Data:    matched[offset:end],
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}, nil
}

func matchesFilter(result *domain.AttributionResult, filter domain.ResultFilter) bool {
	if filter.From != nil && result.ComputedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && result.ComputedAt.After(*filter.To) {
		return false
	}
	if filter.Model != "" && string(result.Model) != filter.Model {
		return false
	}
	if filter.Channel != "" {
		if _, ok := result.ChannelBreakdown[filter.Channel]; !ok {
			return false
		}
	}
	return true
}

// AttributionData returns the serialized snapshot stored for a conversion,
// mainly for consumers that predate the discrete columns.
func (r *ResultRepository) AttributionData(ctx context.Context, conversionID string) ([]byte, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored, ok := r.results[conversionID]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	data := make([]byte, len(stored.attributionData))
	copy(data, stored.attributionData)
	return data, nil
}
