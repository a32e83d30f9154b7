package offer

import "sort"

// Quotas cap each prize-type bucket and the overall manifest.
type Quotas struct {
	Cash     int
	GiftCard int
	Tech     int
	Total    int
}

// DefaultQuotas returns the production bucket sizes. They sum to exactly the
// global cap, so the final truncation never drops a bucket in the default
// configuration.
func DefaultQuotas() Quotas {
	return Quotas{Cash: 15, GiftCard: 20, Tech: 15, Total: 50}
}

// Select produces the final ranked manifest: sort by score descending,
// partition by prize type, take each bucket's quota from the head,
// concatenate in fixed bucket order (cash, gift_card, tech), then
// hard-truncate to the global cap.
//
// The truncation happens after concatenation, so quotas that sum past the cap
// would drop trailing tech offers first. That is the documented behaviour,
// not an accident.
func Select(offers []Offer, q Quotas) []Offer {
	ranked := make([]Offer, len(offers))
	copy(ranked, offers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	buckets := map[PrizeType][]Offer{}
	for _, o := range ranked {
		buckets[o.PrizeType] = append(buckets[o.PrizeType], o)
	}

	manifest := make([]Offer, 0, q.Total)
	manifest = append(manifest, head(buckets[PrizeCash], q.Cash)...)
	manifest = append(manifest, head(buckets[PrizeGiftCard], q.GiftCard)...)
	manifest = append(manifest, head(buckets[PrizeTech], q.Tech)...)

	if q.Total > 0 && len(manifest) > q.Total {
		manifest = manifest[:q.Total]
	}
	return manifest
}

func head(offers []Offer, n int) []Offer {
	if n < 0 {
		n = 0
	}
	if len(offers) > n {
		return offers[:n]
	}
	return offers
}
