package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
)

// implements domain.ConversionRepository
type ConversionRepository struct {
	conversions map[string]domain.ConversionEvent
	mutex       sync.RWMutex
	logger      *logger.Logger
}

func NewConversionRepository(logger *logger.Logger) *ConversionRepository {
	return &ConversionRepository{
		conversions: make(map[string]domain.ConversionEvent),
		logger:      logger,
	}
}

// Store records conversions keyed by conversion id. Conversions are immutable
// once recorded; re-storing the same id is a no-op.
func (r *ConversionRepository) Store(ctx context.Context, events []domain.ConversionEvent) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored := 0
	for _, event := range events {
		if _, exists := r.conversions[event.ConversionID]; exists {
			continue
		}
		r.conversions[event.ConversionID] = event
		stored++
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"received": len(events),
		"stored":   stored,
	}).Info("Stored conversion events")
	return nil
}

func (r *ConversionRepository) QueryByTimeRange(ctx context.Context, from, to time.Time) ([]domain.ConversionEvent, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []domain.ConversionEvent
	for _, event := range r.conversions {
		if event.Timestamp.Before(from) || event.Timestamp.After(to) {
			continue
		}
		result = append(result, event)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}
