package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
)

// implements domain.ConfigRepository. A single mutex stands in for the
// storage-layer uniqueness guarantee on "one default config": demoting the
// previous default and inserting the new one happen under the same lock, and
// EnsureDefault's existence check shares that lock, so two concurrent default
// provisions collapse to one stored config.
type ConfigRepository struct {
	configs map[string]domain.AttributionConfig
	mutex   sync.RWMutex
	logger  *logger.Logger
}

func NewConfigRepository(logger *logger.Logger) *ConfigRepository {
	return &ConfigRepository{
		configs: make(map[string]domain.AttributionConfig),
		logger:  logger,
	}
}

func (r *ConfigRepository) GetByID(ctx context.Context, id string) (*domain.AttributionConfig, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cfg, ok := r.configs[id]
	if !ok {
		return nil, domain.ErrConfigNotFound
	}
	return &cfg, nil
}

func (r *ConfigRepository) GetDefault(ctx context.Context) (*domain.AttributionConfig, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if cfg := r.findDefaultLocked(); cfg != nil {
		return cfg, nil
	}
	return nil, domain.ErrNoDefaultConfig
}

func (r *ConfigRepository) Create(ctx context.Context, cfg domain.AttributionConfig) (*domain.AttributionConfig, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if cfg.IsDefault {
		// demote the previous default in the same critical section, so the
		// created config is the only one holding the flag
		r.unsetDefaultLocked()
	}
	return r.storeLocked(ctx, cfg)
}

// EnsureDefault returns the active default config, creating cfg when none
// exists. The lookup and the insert share one lock, so concurrent
// provisioning collapses to a single stored config.
func (r *ConfigRepository) EnsureDefault(ctx context.Context, cfg domain.AttributionConfig) (*domain.AttributionConfig, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing := r.findDefaultLocked(); existing != nil {
		r.logger.WithContext(ctx).WithField("config_id", existing.ID).
			Info("Default config already exists, skipping duplicate creation")
		return existing, nil
	}

	// a deactivated config may still carry a stale flag
	r.unsetDefaultLocked()
	cfg.IsDefault = true
	return r.storeLocked(ctx, cfg)
}

func (r *ConfigRepository) storeLocked(ctx context.Context, cfg domain.AttributionConfig) (*domain.AttributionConfig, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if _, exists := r.configs[cfg.ID]; exists {
		return nil, domain.ErrConfigExists
	}

	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	r.configs[cfg.ID] = cfg

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"config_id":  cfg.ID,
		"name":       cfg.Name,
		"is_default": cfg.IsDefault,
	}).Info("Stored attribution config")
	return &cfg, nil
}

func (r *ConfigRepository) Update(ctx context.Context, cfg domain.AttributionConfig) (*domain.AttributionConfig, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	current, ok := r.configs[cfg.ID]
	if !ok {
		return nil, domain.ErrConfigNotFound
	}

	if cfg.IsDefault && !current.IsDefault {
		// setting a new default unsets the previous one in the same critical
		// section, so no two configs ever hold the flag together
		r.unsetDefaultLocked()
	}

	cfg.CreatedAt = current.CreatedAt
	cfg.UpdatedAt = time.Now().UTC()
	r.configs[cfg.ID] = cfg

	r.logger.WithContext(ctx).WithField("config_id", cfg.ID).Info("Updated attribution config")
	return &cfg, nil
}

func (r *ConfigRepository) findDefaultLocked() *domain.AttributionConfig {
	for _, cfg := range r.configs {
		if cfg.IsDefault && cfg.IsActive {
			found := cfg
			return &found
		}
	}
	return nil
}

func (r *ConfigRepository) unsetDefaultLocked() {
	for id, cfg := range r.configs {
		if cfg.IsDefault {
			cfg.IsDefault = false
			r.configs[id] = cfg
		}
	}
}
