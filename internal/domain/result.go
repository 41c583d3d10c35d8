package domain

import "time"

// LastTouchPosition marks the touchpoint a model designates as the last
// touch, regardless of how many touchpoints the journey has.
const LastTouchPosition = -1

// CreditTolerance is the floating point tolerance within which the
// per-conversion credit sum must equal 1.0.
const CreditTolerance = 1e-9

// AttributedTouchpoint is one touchpoint's share of a conversion.
type AttributedTouchpoint struct {
	TouchpointID            string  `json:"touchpoint_id"`
	Credit                  float64 `json:"credit"`
	Position                int     `json:"position"`
	TimeToConversionMinutes int64   `json:"time_to_conversion_minutes"`

	Channel   string    `json:"channel,omitempty"`
	Source    string    `json:"source,omitempty"`
	Medium    string    `json:"medium,omitempty"`
	Campaign  string    `json:"campaign,omitempty"`
	Content   string    `json:"content,omitempty"`
	URL       string    `json:"url,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	DecayFactor     float64 `json:"decay_factor,omitempty"`
	PositionWeight  float64 `json:"position_weight,omitempty"`
	ChannelWeight   float64 `json:"channel_weight,omitempty"`
	AttributedValue float64 `json:"attributed_value,omitempty"`
}

// AttributionSnapshot is the serialized summary stored alongside the discrete
// result fields, so stored results survive schema evolution without a
// reprocessing pass.
type AttributionSnapshot struct {
	ChannelBreakdown       map[string]float64 `json:"channel_breakdown"`
	JourneyDurationMinutes int64              `json:"journey_duration_minutes"`
	UniqueChannels         int                `json:"unique_channels"`
}

// AttributionResult is the persisted outcome of attributing one conversion.
type AttributionResult struct {
	ConversionID     string           `json:"conversion_id"`
	Model            AttributionModel `json:"attribution_model"`
	TouchpointsCount int              `json:"touchpoints_count"`
	TotalCredit      float64          `json:"total_credit"`

	Touchpoints []AttributedTouchpoint `json:"touchpoints"`
	FirstTouch  *AttributedTouchpoint  `json:"first_touch,omitempty"`
	LastTouch   *AttributedTouchpoint  `json:"last_touch,omitempty"`

	ChannelBreakdown       map[string]float64 `json:"channel_breakdown"`
	JourneyDurationMinutes int64              `json:"journey_duration_minutes"`
	// Kept alongside TouchpointsCount for backward-compatible naming; the two
	// always match.
	TouchpointCount int `json:"touchpoint_count"`
	UniqueChannels  int `json:"unique_channels"`

	ConversionValue float64   `json:"conversion_value,omitempty"`
	ComputedAt      time.Time `json:"computed_at"`
}

// Snapshot extracts the schema-evolution summary for persistence.
func (r *AttributionResult) Snapshot() AttributionSnapshot {
	return AttributionSnapshot{
		ChannelBreakdown:       r.ChannelBreakdown,
		JourneyDurationMinutes: r.JourneyDurationMinutes,
		UniqueChannels:         r.UniqueChannels,
	}
}

// RecalculationStats summarizes one batch recalculation run.
type RecalculationStats struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ResultFilter selects stored results for querying and export.
type ResultFilter struct {
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
	Channel string     `json:"channel,omitempty"`
	Model   string     `json:"model,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Offset  int        `json:"offset,omitempty"`
}

// ResultPage is a paginated slice of stored results.
type ResultPage struct {
	Data    []AttributionResult `json:"data"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	HasMore bool                `json:"has_more"`
}
