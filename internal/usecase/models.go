package usecase

import (
	"math"
	"time"

	"attrgo/internal/domain"
)

// decayHalfLifeDays is the time-decay half life: a touchpoint seven days
// before the conversion weighs half as much as one at the conversion.
const decayHalfLifeDays = 7.0

// minutesToConversion returns the rounded number of minutes between a
// touchpoint and the conversion it precedes.
func minutesToConversion(tp time.Time, conversion time.Time) int64 {
	return int64(math.Round(conversion.Sub(tp).Minutes()))
}

// applyModel distributes conversion credit across the ordered touchpoint list
// according to the given model. Credits sum to 1.0 before channel weighting.
// Unimplemented models (data_driven, custom) and unrecognized values fall
// back to last-touch; the caller logs that fallback.
//
// Positions are 1-based from the journey start. The touchpoint a model
// designates as the last touch carries the -1 sentinel instead.
func applyModel(model domain.AttributionModel, tps []domain.Touchpoint, event *domain.ConversionEvent) []domain.AttributedTouchpoint {
	if len(tps) == 0 {
		return nil
	}

	switch model {
	case domain.ModelFirstTouch:
		return firstTouchCredits(tps, event)
	case domain.ModelLinear:
		return linearCredits(tps, event)
	case domain.ModelTimeDecay:
		return timeDecayCredits(tps, event)
	case domain.ModelPositionBased:
		return positionBasedCredits(tps, event)
	default:
		// last_touch, plus the documented fallback for everything else
		return lastTouchCredits(tps, event)
	}
}

// modelFallsBack reports whether applyModel will silently treat the given
// model as last-touch.
func modelFallsBack(model domain.AttributionModel) bool {
	switch model {
	case domain.ModelFirstTouch, domain.ModelLastTouch, domain.ModelLinear,
		domain.ModelTimeDecay, domain.ModelPositionBased:
		return false
	}
	return true
}

func newAttributed(tp *domain.Touchpoint, event *domain.ConversionEvent, credit float64, position int) domain.AttributedTouchpoint {
	return domain.AttributedTouchpoint{
		TouchpointID:            tp.ID,
		Credit:                  credit,
		Position:                position,
		TimeToConversionMinutes: minutesToConversion(tp.Timestamp, event.Timestamp),
		Channel:                 tp.Channel,
		Source:                  tp.Source,
		Medium:                  tp.Medium,
		Campaign:                tp.Campaign,
		Content:                 tp.Content,
		URL:                     tp.URL,
		Timestamp:               tp.Timestamp,
	}
}

// full credit to the earliest touchpoint
func firstTouchCredits(tps []domain.Touchpoint, event *domain.ConversionEvent) []domain.AttributedTouchpoint {
	return []domain.AttributedTouchpoint{newAttributed(&tps[0], event, 1.0, 1)}
}

// full credit to the latest touchpoint
func lastTouchCredits(tps []domain.Touchpoint, event *domain.ConversionEvent) []domain.AttributedTouchpoint {
	last := &tps[len(tps)-1]
	return []domain.AttributedTouchpoint{newAttributed(last, event, 1.0, domain.LastTouchPosition)}
}

// equal credit to every touchpoint
func linearCredits(tps []domain.Touchpoint, event *domain.ConversionEvent) []domain.AttributedTouchpoint {
	credit := 1.0 / float64(len(tps))
	attributed := make([]domain.AttributedTouchpoint, 0, len(tps))
	for i := range tps {
		attributed = append(attributed, newAttributed(&tps[i], event, credit, i+1))
	}
	return attributed
}

// credit proportional to 0.5^(daysFromConversion/halfLife), normalized
func timeDecayCredits(tps []domain.Touchpoint, event *domain.ConversionEvent) []domain.AttributedTouchpoint {
	weights := make([]float64, len(tps))
	var total float64
	for i := range tps {
		days := float64(minutesToConversion(tps[i].Timestamp, event.Timestamp)) / (24 * 60)
		weights[i] = math.Pow(0.5, days/decayHalfLifeDays)
		total += weights[i]
	}

	attributed := make([]domain.AttributedTouchpoint, 0, len(tps))
	for i := range tps {
		credit := weights[i] / total
		position := i + 1
		if i == len(tps)-1 && len(tps) > 1 {
			position = domain.LastTouchPosition
		}
		at := newAttributed(&tps[i], event, credit, position)
		at.DecayFactor = credit
		at.PositionWeight = credit
		attributed = append(attributed, at)
	}
	return attributed
}

// 40% to the first touch, 40% to the last, the middle splits the remaining 20%
func positionBasedCredits(tps []domain.Touchpoint, event *domain.ConversionEvent) []domain.AttributedTouchpoint {
	n := len(tps)
	switch n {
	case 1:
		return firstTouchCredits(tps, event)
	case 2:
		return []domain.AttributedTouchpoint{
			newAttributed(&tps[0], event, 0.5, 1),
			newAttributed(&tps[1], event, 0.5, domain.LastTouchPosition),
		}
	}

	middleCredit := 0.2 / float64(n-2)
	attributed := make([]domain.AttributedTouchpoint, 0, n)
	attributed = append(attributed, newAttributed(&tps[0], event, 0.4, 1))
	for i := 1; i < n-1; i++ {
		attributed = append(attributed, newAttributed(&tps[i], event, middleCredit, i+1))
	}
	attributed = append(attributed, newAttributed(&tps[n-1], event, 0.4, domain.LastTouchPosition))
	return attributed
}
