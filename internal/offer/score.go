package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	valueBandHigh = decimal.NewFromInt(750)
	valueBandMid  = decimal.NewFromInt(300)
	valueBandLow  = decimal.NewFromInt(100)

	payoutToValue = decimal.NewFromInt(100)
)

// Score computes the desirability score for a single offer. It is a pure
// function of the offer fields and the supplied clock: equal inputs always
// produce equal scores, which is what makes tie-breaking during merge
// reproducible.
//
// The total is an unweighted sum of four heuristics:
//   - value tier from the named prize value, or payout*100 for network
//     offers that carry no prize value
//   - urgency from hours until deadline (expired deadlines contribute zero,
//     never a penalty)
//   - brand affinity keyword match on the display name
//   - mobile suitability flag
func Score(o Offer, now time.Time, kw Keywords) int {
	score := valueTier(effectiveValue(o))

	if o.Deadline != nil {
		hours := o.Deadline.Sub(now).Hours()
		switch {
		case hours > 0 && hours <= 72:
			score += 20
		case hours > 0 && hours <= 168:
			score += 10
		}
	}

	if MatchesBrand(o.PrizeName, kw) {
		score += 10
	}
	if o.Mobile {
		score += 10
	}
	return score
}

// ScoreAll attaches scores in place and returns the same slice.
func ScoreAll(offers []Offer, now time.Time, kw Keywords) []Offer {
	for i := range offers {
		offers[i].Score = Score(offers[i], now, kw)
	}
	return offers
}

func effectiveValue(o Offer) decimal.Decimal {
	if o.PrizeValue != nil {
		return *o.PrizeValue
	}
	return o.Payout.Mul(payoutToValue)
}

func valueTier(v decimal.Decimal) int {
	switch {
	case v.GreaterThanOrEqual(valueBandHigh):
		return 25
	case v.GreaterThanOrEqual(valueBandMid):
		return 16
	case v.GreaterThanOrEqual(valueBandLow):
		return 8
	default:
		return 0
	}
}
