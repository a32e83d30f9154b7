package offer

import "strings"

// OfferIndex is a read-only lookup structure built once from a finalized
// manifest. It replaces ad-hoc per-request scans with precomputed buckets and
// is passed explicitly to whoever serves offers; there is no package-level
// index state.
type OfferIndex struct {
	all      []Offer
	byGeo    map[string][]Offer
	wildcard []Offer
}

// NewIndex constructs an index over an immutable offer list. Manifest order
// is preserved inside every bucket, so lookups stay ranked.
func NewIndex(offers []Offer) *OfferIndex {
	idx := &OfferIndex{
		all:   offers,
		byGeo: make(map[string][]Offer),
	}
	for _, o := range offers {
		if o.HasWildcardGeo() {
			idx.wildcard = append(idx.wildcard, o)
			continue
		}
		for _, g := range o.Geo {
			code := strings.ToUpper(strings.TrimSpace(g))
			if code == "" {
				continue
			}
			idx.byGeo[code] = append(idx.byGeo[code], o)
		}
	}
	return idx
}

// Len returns the number of indexed offers.
func (idx *OfferIndex) Len() int {
	return len(idx.all)
}

// All returns the full manifest in rank order.
func (idx *OfferIndex) All() []Offer {
	return idx.all
}

// Lookup returns offers for a visitor geo and device class. Fallback order:
// geo-targeted offers matching the device flag, then remaining geo-targeted
// offers, then wildcard-geo offers. An empty geo skips straight to wildcard.
// The mobile flag is a suitability preference rather than a hard filter, so
// mismatched-device offers still appear after the device-matched ones.
func (idx *OfferIndex) Lookup(geo string, mobile bool) []Offer {
	code := strings.ToUpper(strings.TrimSpace(geo))

	var geoOffers []Offer
	if code != "" {
		geoOffers = idx.byGeo[code]
	}

	out := make([]Offer, 0, len(geoOffers)+len(idx.wildcard))
	seen := make(map[string]struct{}, cap(out))

	appendUnique := func(offers []Offer, deviceMatch bool) {
		for _, o := range offers {
			if deviceMatch && o.Mobile != mobile {
				continue
			}
			if _, dup := seen[o.ID]; dup {
				continue
			}
			seen[o.ID] = struct{}{}
			out = append(out, o)
		}
	}

	appendUnique(geoOffers, true)
	appendUnique(geoOffers, false)
	appendUnique(idx.wildcard, false)
	return out
}
