package offer

import (
	"net/url"
	"strings"
)

// Merge deduplicates offers across sources. Callers pass groups in trust
// order (organic first, then each network in its configured position); that
// order is the tie-break for equal scores, because only a strictly greater
// score displaces an already retained offer.
//
// The dedup key is the offer id when present, otherwise the entry URL with
// its query string stripped so that tracking-parameter variance does not
// create spurious duplicates.
func Merge(groups ...[]Offer) []Offer {
	type slot struct {
		offer Offer
		pos   int
	}

	byKey := make(map[string]slot)
	order := 0

	for _, group := range groups {
		for _, o := range group {
			key := dedupKey(o)
			existing, seen := byKey[key]
			if !seen {
				byKey[key] = slot{offer: o, pos: order}
				order++
				continue
			}
			if o.Score > existing.offer.Score {
				byKey[key] = slot{offer: o, pos: existing.pos}
			}
		}
	}

	merged := make([]Offer, len(byKey))
	for _, s := range byKey {
		merged[s.pos] = s.offer
	}
	return merged
}

func dedupKey(o Offer) string {
	if o.ID != "" {
		return "id:" + o.ID
	}
	return "url:" + stripQuery(o.EntryURL)
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// Unparseable URLs fall back to a manual cut so they still dedup
		// against byte-identical entries.
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
