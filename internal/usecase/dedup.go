package usecase

import (
	"sort"
	"time"

	"attrgo/internal/domain"
)

// deduplicateTouchpoints collapses touchpoints of the same type landing
// within the configured dedup window, per the config's duplicate handling
// mode. Input and output are ascending by timestamp. A zero window disables
// deduplication.
func deduplicateTouchpoints(cfg *domain.AttributionConfig, tps []domain.Touchpoint) []domain.Touchpoint {
	if cfg.DeduplicationWindowHours <= 0 || len(tps) < 2 {
		return tps
	}
	window := time.Duration(cfg.DeduplicationWindowHours) * time.Hour

	deduped := make([]domain.Touchpoint, 0, len(tps))
	for _, tp := range tps {
		last := lastOfType(deduped, tp.Type)
		if last == nil || tp.Timestamp.Sub(last.Timestamp) > window {
			deduped = append(deduped, tp)
			continue
		}

		switch cfg.DuplicateHandling {
		case domain.DuplicateLastTouch:
			// later occurrence wins
			*last = tp
		case domain.DuplicateHighestValue:
			if tp.MetadataNumber("value") > last.MetadataNumber("value") {
				*last = tp
			}
		case domain.DuplicateSumValues:
			// the metadata map is shared with the stored touchpoint; write to
			// a copy, never through it
			merged := make(map[string]any, len(last.Metadata)+1)
			for k, v := range last.Metadata {
				merged[k] = v
			}
			merged["value"] = last.MetadataNumber("value") + tp.MetadataNumber("value")
			last.Metadata = merged
		default:
			// first_touch and ignore_duplicates keep the earliest occurrence
		}
	}

	// replacement under last_touch handling can reorder interleaved types
	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].Timestamp.Before(deduped[j].Timestamp)
	})
	return deduped
}

func lastOfType(tps []domain.Touchpoint, tpType string) *domain.Touchpoint {
	for i := len(tps) - 1; i >= 0; i-- {
		if tps[i].Type == tpType {
			return &tps[i]
		}
	}
	return nil
}
