package offer

import (
	"time"

	"offergate/internal/feed"
)

// Normalize maps one adapter record into the common offer shape. The prize
// type is classified here, once, from the display name and never re-derived
// later in the pipeline.
func Normalize(source string, raw feed.RawOffer, kw Keywords) Offer {
	o := Offer{
		ID:           ComposeID(source, raw.NativeID),
		Source:       source,
		PrizeType:    ClassifyPrize(raw.Name, kw),
		PrizeName:    raw.Name,
		Payout:       raw.Payout,
		PrizeValue:   raw.PrizeValue,
		Geo:          normalizeGeo(raw.Geo),
		EntryURL:     raw.EntryURL,
		Mobile:       raw.Mobile,
		VerifiedLive: raw.VerifiedLive,
	}

	if raw.Deadline != "" {
		if t, err := time.Parse(time.RFC3339, raw.Deadline); err == nil {
			o.Deadline = &t
		}
	}
	return o
}

// NormalizeAll maps a whole source batch, preserving feed order.
func NormalizeAll(source string, raws []feed.RawOffer, kw Keywords) []Offer {
	offers := make([]Offer, 0, len(raws))
	for _, raw := range raws {
		offers = append(offers, Normalize(source, raw, kw))
	}
	return offers
}

func normalizeGeo(geo []string) []string {
	if len(geo) == 0 {
		return []string{GeoWildcard}
	}
	return geo
}
