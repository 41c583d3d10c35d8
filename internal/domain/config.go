package domain

import (
	"time"
)

type AttributionModel string

const (
	ModelFirstTouch    AttributionModel = "first_touch"
	ModelLastTouch     AttributionModel = "last_touch"
	ModelLinear        AttributionModel = "linear"
	ModelTimeDecay     AttributionModel = "time_decay"
	ModelPositionBased AttributionModel = "position_based"
	ModelDataDriven    AttributionModel = "data_driven"
	ModelCustom        AttributionModel = "custom"
)

type DuplicateHandling string

const (
	DuplicateFirstTouch   DuplicateHandling = "first_touch"
	DuplicateLastTouch    DuplicateHandling = "last_touch"
	DuplicateHighestValue DuplicateHandling = "highest_value"
	DuplicateSumValues    DuplicateHandling = "sum_values"
	DuplicateIgnore       DuplicateHandling = "ignore_duplicates"
)

// DefaultChannelWeight applies to any channel missing from the weight table.
// An explicit 0 in the table is honored as a real weight.
const DefaultChannelWeight = 1.0

// ChannelWeights maps a channel to its credit multiplier.
type ChannelWeights map[string]float64

// Weight returns the configured multiplier for a channel. A touchpoint with
// no channel is looked up as "direct".
func (w ChannelWeights) Weight(channel string) float64 {
	if channel == "" {
		channel = ChannelDirect
	}
	if weight, ok := w[channel]; ok {
		return weight
	}
	return DefaultChannelWeight
}

// AttributionConfig parameterizes a single attribution computation run.
type AttributionConfig struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	IsActive  bool   `json:"is_active"`

	// Lookback horizons. The click-through window drives touchpoint retrieval;
	// the view-through window is carried for reporting.
	ClickThroughWindowDays int `json:"click_through_window_days"`
	ViewThroughWindowDays  int `json:"view_through_window_days"`

	Model AttributionModel `json:"attribution_model"`

	// Conversion economics: which event types this config applies to and the
	// monetary value assumed per type when the event carries none.
	ConversionEvents []string           `json:"conversion_events,omitempty"`
	ConversionValues map[string]float64 `json:"conversion_values,omitempty"`

	ChannelWeights   ChannelWeights    `json:"channel_weights,omitempty"`
	ChannelAliases   map[string]string `json:"channel_aliases,omitempty"`
	ChannelHierarchy []string          `json:"channel_hierarchy,omitempty"`

	// If non-empty, only touchpoints of these types are eligible.
	TouchpointTypes []string `json:"touchpoint_types,omitempty"`

	CrossDevice              bool              `json:"cross_device"`
	CrossDomain              bool              `json:"cross_domain"`
	DeduplicationWindowHours int               `json:"deduplication_window_hours"`
	DuplicateHandling        DuplicateHandling `json:"duplicate_handling"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanonicalChannel resolves configured aliases to their canonical channel name.
func (c *AttributionConfig) CanonicalChannel(channel string) string {
	if canonical, ok := c.ChannelAliases[channel]; ok && canonical != "" {
		return canonical
	}
	return channel
}

// AppliesTo reports whether this config covers the given conversion type.
// An empty ConversionEvents list covers everything.
func (c *AttributionConfig) AppliesTo(conversionType string) bool {
	if len(c.ConversionEvents) == 0 {
		return true
	}
	for _, event := range c.ConversionEvents {
		if event == conversionType {
			return true
		}
	}
	return false
}

// LookbackStart returns the inclusive start of the touchpoint window for a
// conversion at the given instant.
func (c *AttributionConfig) LookbackStart(conversionTime time.Time) time.Time {
	return conversionTime.AddDate(0, 0, -c.ClickThroughWindowDays)
}

// DefaultConfig builds the auto-provisioned configuration used when no
// default exists yet: last-touch, 30-day click window, 1-day view window and
// a starter channel weight table.
func DefaultConfig() AttributionConfig {
	now := time.Now().UTC()
	return AttributionConfig{
		Name:                   "default",
		IsDefault:              true,
		IsActive:               true,
		ClickThroughWindowDays: 30,
		ViewThroughWindowDays:  1,
		Model:                  ModelLastTouch,
		ChannelWeights: ChannelWeights{
			ChannelEmail:    1.0,
			ChannelSocial:   1.0,
			ChannelSearch:   1.2,
			ChannelDisplay:  0.8,
			ChannelReferral: 1.0,
			ChannelDirect:   1.0,
		},
		DuplicateHandling: DuplicateLastTouch,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
