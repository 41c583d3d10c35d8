package usecase

import (
	"strings"

	"attrgo/internal/domain"
)

// mediumChannels maps a utm_medium value to its canonical channel. Anything
// outside the table classifies as "other".
var mediumChannels = map[string]string{
	"email":     domain.ChannelEmail,
	"social":    domain.ChannelSocial,
	"search":    domain.ChannelSearch,
	"display":   domain.ChannelDisplay,
	"affiliate": domain.ChannelAffiliate,
	"sms":       domain.ChannelSMS,
	"whatsapp":  domain.ChannelWhatsApp,
	"referral":  domain.ChannelReferral,
}

// classifyTouchpoint fills the derived channel/source/medium/campaign/content
// fields of a touchpoint from its loosely typed metadata.
//
// Channel precedence:
//  1. utm_medium, mapped through mediumChannels
//  2. referrer domain heuristics
//  3. URL path heuristics
//  4. direct
func classifyTouchpoint(cfg *domain.AttributionConfig, tp *domain.Touchpoint) {
	utmMedium := tp.MetadataString("utm_medium")
	utmSource := tp.MetadataString("utm_source")
	referrer := tp.MetadataString("referrer")

	switch {
	case utmMedium != "":
		if channel, ok := mediumChannels[strings.ToLower(utmMedium)]; ok {
			tp.Channel = channel
		} else {
			tp.Channel = domain.ChannelOther
		}
	case referrer != "":
		tp.Channel = classifyReferrer(referrer)
	default:
		tp.Channel = classifyURLPath(tp.URL)
	}
	tp.Channel = cfg.CanonicalChannel(tp.Channel)

	switch {
	case utmSource != "":
		tp.Source = utmSource
	case referrer != "":
		tp.Source = referrer
	default:
		tp.Source = domain.ChannelDirect
	}

	if utmMedium != "" {
		tp.Medium = utmMedium
	} else {
		tp.Medium = "organic"
	}

	tp.Campaign = tp.MetadataString("utm_campaign")
	tp.Content = tp.MetadataString("utm_content")
}

func classifyReferrer(referrer string) string {
	ref := strings.ToLower(referrer)
	switch {
	case strings.Contains(ref, "google."):
		return domain.ChannelSearch
	case strings.Contains(ref, "facebook."), strings.Contains(ref, "twitter."),
		strings.Contains(ref, "linkedin."):
		return domain.ChannelSocial
	case strings.Contains(ref, "youtube."):
		return domain.ChannelVideo
	default:
		return domain.ChannelReferral
	}
}

func classifyURLPath(url string) string {
	path := strings.ToLower(url)
	switch {
	case strings.Contains(path, "/email/"):
		return domain.ChannelEmail
	case strings.Contains(path, "/social/"):
		return domain.ChannelSocial
	case strings.Contains(path, "/search/"):
		return domain.ChannelSearch
	default:
		return domain.ChannelDirect
	}
}
