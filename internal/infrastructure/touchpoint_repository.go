package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
)

// implements domain.TouchpointRepository, keyed by visitor identity
type TouchpointRepository struct {
	byVisitor map[string][]domain.Touchpoint
	mutex     sync.RWMutex
	logger    *logger.Logger
}

func NewTouchpointRepository(logger *logger.Logger) *TouchpointRepository {
	return &TouchpointRepository{
		byVisitor: make(map[string][]domain.Touchpoint),
		logger:    logger,
	}
}

func (r *TouchpointRepository) Store(ctx context.Context, tps []domain.Touchpoint) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, tp := range tps {
		for _, key := range visitorKeys(&tp) {
			r.byVisitor[key] = append(r.byVisitor[key], tp)
		}
	}

	r.logger.WithContext(ctx).WithField("count", len(tps)).Info("Stored touchpoints")
	return nil
}

// QueryByVisitor returns the visitor's touchpoints inside [from, to], both
// bounds inclusive, ascending by timestamp.
func (r *TouchpointRepository) QueryByVisitor(ctx context.Context, visitorKey string, from, to time.Time, types []string) ([]domain.Touchpoint, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []domain.Touchpoint
	for _, tp := range r.byVisitor[visitorKey] {
		if tp.Timestamp.Before(from) || tp.Timestamp.After(to) {
			continue
		}
		if len(types) > 0 && !containsType(types, tp.Type) {
			continue
		}
		result = append(result, tp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func visitorKeys(tp *domain.Touchpoint) []string {
	var keys []string
	if tp.VisitorID != "" {
		keys = append(keys, tp.VisitorID)
	}
	if tp.AnonymousVisitorID != "" && tp.AnonymousVisitorID != tp.VisitorID {
		keys = append(keys, tp.AnonymousVisitorID)
	}
	return keys
}

func containsType(types []string, tpType string) bool {
	for _, t := range types {
		if t == tpType {
			return true
		}
	}
	return false
}
