package domain

import "time"

// Canonical channel names derived from touchpoint metadata.
const (
	ChannelEmail     = "email"
	ChannelSocial    = "social"
	ChannelSearch    = "search"
	ChannelDisplay   = "display"
	ChannelAffiliate = "affiliate"
	ChannelSMS       = "sms"
	ChannelWhatsApp  = "whatsapp"
	ChannelReferral  = "referral"
	ChannelVideo     = "video"
	ChannelDirect    = "direct"
	ChannelOther     = "other"
)

// Touchpoint is a single recorded marketing interaction. The raw record is
// owned by the collection side; Channel/Source/Medium/Campaign/Content are
// derived here from UTM metadata or URL heuristics.
type Touchpoint struct {
	ID                 string         `json:"id"`
	VisitorID          string         `json:"visitor_id,omitempty"`
	AnonymousVisitorID string         `json:"anonymous_visitor_id,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
	Type               string         `json:"type"`
	URL                string         `json:"url,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`

	Channel  string `json:"channel,omitempty"`
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Content  string `json:"content,omitempty"`
}

// MetadataString returns a string metadata field, or "" when absent or not a
// string. Metadata arrives as loosely typed JSON.
func (t *Touchpoint) MetadataString(key string) string {
	if t.Metadata == nil {
		return ""
	}
	if value, ok := t.Metadata[key].(string); ok {
		return value
	}
	return ""
}

// MetadataNumber returns a numeric metadata field, or 0 when absent.
func (t *Touchpoint) MetadataNumber(key string) float64 {
	if t.Metadata == nil {
		return 0
	}
	switch value := t.Metadata[key].(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	}
	return 0
}

// ConversionEvent is the terminal action being attributed. Immutable once
// recorded.
type ConversionEvent struct {
	ConversionID       string    `json:"conversion_id"`
	Type               string    `json:"conversion_type"`
	Value              float64   `json:"conversion_value,omitempty"`
	Timestamp          time.Time `json:"conversion_time"`
	VisitorID          string    `json:"visitor_id,omitempty"`
	AnonymousVisitorID string    `json:"anonymous_visitor_id,omitempty"`
	SessionID          string    `json:"session_id,omitempty"`
}

// VisitorKey returns the identity used for touchpoint lookup: the known
// visitor id when present, else the anonymous one. Empty means no resolvable
// identity and triggers the direct-attribution path.
func (c *ConversionEvent) VisitorKey() string {
	if c.VisitorID != "" {
		return c.VisitorID
	}
	return c.AnonymousVisitorID
}
