package usecase

import (
	"context"
	"fmt"

	"attrgo/internal/domain"
	"attrgo/pkg/logger"
)

// ConfigService manages attribution configs through the admin surface.
type ConfigService struct {
	configRepo domain.ConfigRepository
	logger     *logger.Logger
}

func NewConfigService(configRepo domain.ConfigRepository, logger *logger.Logger) *ConfigService {
	return &ConfigService{configRepo: configRepo, logger: logger}
}

func (s *ConfigService) Get(ctx context.Context, id string) (*domain.AttributionConfig, error) {
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", id, err)
	}
	return cfg, nil
}

// Create stores a new config. Making it the default demotes any previous
// default; the repository does both in one critical section.
func (s *ConfigService) Create(ctx context.Context, cfg domain.AttributionConfig) (*domain.AttributionConfig, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)

	created, err := s.configRepo.Create(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"config_id":         created.ID,
		"name":              created.Name,
		"attribution_model": string(created.Model),
		"is_default":        created.IsDefault,
	}).Info("Created attribution config")
	return created, nil
}

// Update mutates an existing config. The repository unsets a previous default
// in the same critical section when the updated config takes the flag.
func (s *ConfigService) Update(ctx context.Context, cfg domain.AttributionConfig) (*domain.AttributionConfig, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)

	updated, err := s.configRepo.Update(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to update config %s: %w", cfg.ID, err)
	}

	s.logger.WithContext(ctx).WithField("config_id", updated.ID).Info("Updated attribution config")
	return updated, nil
}

func validateConfig(cfg *domain.AttributionConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("config name is required")
	}
	if cfg.ClickThroughWindowDays < 0 || cfg.ViewThroughWindowDays < 0 {
		return fmt.Errorf("lookback windows must not be negative")
	}
	switch cfg.Model {
	case "", domain.ModelFirstTouch, domain.ModelLastTouch, domain.ModelLinear,
		domain.ModelTimeDecay, domain.ModelPositionBased,
		domain.ModelDataDriven, domain.ModelCustom:
		return nil
	}
	return fmt.Errorf("unknown attribution model %q", cfg.Model)
}

func applyConfigDefaults(cfg *domain.AttributionConfig) {
	if cfg.Model == "" {
		cfg.Model = domain.ModelLastTouch
	}
	if cfg.ClickThroughWindowDays == 0 {
		cfg.ClickThroughWindowDays = 30
	}
	if cfg.ViewThroughWindowDays == 0 {
		cfg.ViewThroughWindowDays = 1
	}
}
