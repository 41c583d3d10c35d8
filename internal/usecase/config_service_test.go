package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"attrgo/internal/domain"
)

func newConfigService(env *testEnv) *ConfigService {
	return NewConfigService(env.configRepo, testLogger)
}

func TestConfigServiceCreateAppliesDefaults(t *testing.T) {
	env := newTestEnv()
	svc := newConfigService(env)

	created, err := svc.Create(context.Background(), domain.AttributionConfig{
		Name:     "minimal",
		IsActive: true,
	})
	require.NoError(t, err)

	require.Equal(t, domain.ModelLastTouch, created.Model)
	require.Equal(t, 30, created.ClickThroughWindowDays)
	require.Equal(t, 1, created.ViewThroughWindowDays)
}

func TestConfigServiceCreateValidation(t *testing.T) {
	env := newTestEnv()
	svc := newConfigService(env)

	_, err := svc.Create(context.Background(), domain.AttributionConfig{})
	require.ErrorContains(t, err, "name is required")

	_, err = svc.Create(context.Background(), domain.AttributionConfig{
		Name:                   "bad-window",
		ClickThroughWindowDays: -1,
	})
	require.ErrorContains(t, err, "must not be negative")

	_, err = svc.Create(context.Background(), domain.AttributionConfig{
		Name:  "bad-model",
		Model: domain.AttributionModel("markov_chain"),
	})
	require.ErrorContains(t, err, "unknown attribution model")
}

func TestConfigServiceCreateDefaultReplacesPrevious(t *testing.T) {
	env := newTestEnv()
	svc := newConfigService(env)

	first, err := svc.Create(context.Background(), domain.AttributionConfig{
		Name:      "first-default",
		IsActive:  true,
		IsDefault: true,
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), domain.AttributionConfig{
		Name:      "second-default",
		IsActive:  true,
		IsDefault: true,
	})
	require.NoError(t, err)

	current, err := env.configRepo.GetDefault(context.Background())
	require.NoError(t, err)
	require.Equal(t, second.ID, current.ID)

	demoted, err := env.configRepo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	require.False(t, demoted.IsDefault)
}

func TestConfigServiceUpdateUnknownConfig(t *testing.T) {
	env := newTestEnv()
	svc := newConfigService(env)

	_, err := svc.Update(context.Background(), domain.AttributionConfig{
		ID:   "missing",
		Name: "anything",
	})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}
