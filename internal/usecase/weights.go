package usecase

import "attrgo/internal/domain"

// applyChannelWeights multiplies each credit by its configured channel
// multiplier and renormalizes so the total stays 1.0. Returns the resulting
// total credit: 1.0 normally, 0 when every weight resolved to zero. The zero
// case is a data-quality anomaly, not an error; the caller logs it and the
// result is persisted as unattributable.
func applyChannelWeights(cfg *domain.AttributionConfig, attributed []domain.AttributedTouchpoint) float64 {
	if len(attributed) == 0 {
		return 0
	}

	var total float64
	for i := range attributed {
		weight := cfg.ChannelWeights.Weight(cfg.CanonicalChannel(attributed[i].Channel))
		attributed[i].ChannelWeight = weight
		attributed[i].Credit *= weight
		total += attributed[i].Credit
	}

	if total <= 0 {
		for i := range attributed {
			attributed[i].Credit = 0
		}
		return 0
	}

	for i := range attributed {
		attributed[i].Credit /= total
	}
	return 1.0
}
