package offer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FilterConfig parameterises the geo/prize filter.
type FilterConfig struct {
	// AllowedGeos is the serving allow-list of ISO country codes,
	// case-insensitive. An empty list allows every geo.
	AllowedGeos []string

	// MinPrizeValue applies to organic offers only; network payouts are not
	// comparable to a named prize value, so network offers are exempt.
	MinPrizeValue decimal.Decimal
}

// Filter drops offers outside the allowed geographies or, for organic offers,
// below the minimum prize value or explicitly marked not live. Both
// predicates must pass.
func Filter(offers []Offer, cfg FilterConfig) []Offer {
	allowed := make(map[string]struct{}, len(cfg.AllowedGeos))
	for _, g := range cfg.AllowedGeos {
		allowed[strings.ToUpper(strings.TrimSpace(g))] = struct{}{}
	}

	kept := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if !geoAllowed(o, allowed) {
			continue
		}
		if o.IsOrganic() {
			if o.VerifiedLive != nil && !*o.VerifiedLive {
				continue
			}
			if o.PrizeValue == nil || o.PrizeValue.LessThan(cfg.MinPrizeValue) {
				continue
			}
		}
		kept = append(kept, o)
	}
	return kept
}

func geoAllowed(o Offer, allowed map[string]struct{}) bool {
	if o.HasWildcardGeo() || len(allowed) == 0 {
		return true
	}
	for _, g := range o.Geo {
		if _, ok := allowed[strings.ToUpper(strings.TrimSpace(g))]; ok {
			return true
		}
	}
	return false
}
