package offer

import "strings"

// Keywords hold the pattern lists used for prize classification and brand
// affinity. They live in data rather than in the matcher so tests can
// substitute fixtures.
type Keywords struct {
	Tech     []string
	GiftCard []string
	Brand    []string
}

// DefaultKeywords returns the production pattern tables.
func DefaultKeywords() Keywords {
	return Keywords{
		Tech:     []string{"iphone", "ps5", "macbook", "console"},
		GiftCard: []string{"gift", "visa", "amazon", "paypal", "roblox", "walmart"},
		Brand:    []string{"amazon", "paypal", "visa", "roblox", "iphone", "ps5"},
	}
}

// ClassifyPrize derives the prize type from the display name. Priority order
// matters: tech keywords win over gift-card keywords, and anything unmatched
// falls through to cash. This is a lossy keyword heuristic, not an
// authoritative taxonomy; it is applied once at normalization time.
func ClassifyPrize(name string, kw Keywords) PrizeType {
	lower := strings.ToLower(name)
	if matchAny(lower, kw.Tech) {
		return PrizeTech
	}
	if matchAny(lower, kw.GiftCard) {
		return PrizeGiftCard
	}
	return PrizeCash
}

// MatchesBrand reports whether the display name carries a known brand keyword.
func MatchesBrand(name string, kw Keywords) bool {
	return matchAny(strings.ToLower(name), kw.Brand)
}

func matchAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
