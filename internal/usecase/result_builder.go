package usecase

import (
	"time"

	"attrgo/internal/domain"
)

// buildResult assembles the persisted outcome from the weighted credits.
// tps is the full selected window; attributed may be a subset of it (single
// entry for first/last-touch models).
func buildResult(
	event *domain.ConversionEvent,
	cfg *domain.AttributionConfig,
	model domain.AttributionModel,
	tps []domain.Touchpoint,
	attributed []domain.AttributedTouchpoint,
	totalCredit float64,
) *domain.AttributionResult {
	conversionValue := resolveConversionValue(event, cfg)

	breakdown := make(map[string]float64)
	channels := make(map[string]struct{})
	var firstTouch, lastTouch *domain.AttributedTouchpoint

	for i := range attributed {
		at := &attributed[i]
		at.AttributedValue = at.Credit * conversionValue

		channel := at.Channel
		if channel == "" {
			channel = domain.ChannelDirect
		}
		breakdown[channel] += at.Credit
		channels[channel] = struct{}{}

		switch at.Position {
		case 1:
			firstTouch = at
		case domain.LastTouchPosition:
			lastTouch = at
		}
	}

	return &domain.AttributionResult{
		ConversionID:           event.ConversionID,
		Model:                  model,
		TouchpointsCount:       len(tps),
		TouchpointCount:        len(tps),
		TotalCredit:            totalCredit,
		Touchpoints:            attributed,
		FirstTouch:             copyAttributed(firstTouch),
		LastTouch:              copyAttributed(lastTouch),
		ChannelBreakdown:       breakdown,
		JourneyDurationMinutes: minutesToConversion(tps[0].Timestamp, event.Timestamp),
		UniqueChannels:         len(channels),
		ConversionValue:        conversionValue,
		ComputedAt:             time.Now().UTC(),
	}
}

// resolveConversionValue prefers the value carried by the event itself, then
// the config's per-type table.
func resolveConversionValue(event *domain.ConversionEvent, cfg *domain.AttributionConfig) float64 {
	if event.Value > 0 {
		return event.Value
	}
	return cfg.ConversionValues[event.Type]
}

func copyAttributed(at *domain.AttributedTouchpoint) *domain.AttributedTouchpoint {
	if at == nil {
		return nil
	}
	cp := *at
	return &cp
}
