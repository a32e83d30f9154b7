package offer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PrizeType partitions offers into output buckets.
type PrizeType string

const (
	PrizeCash     PrizeType = "cash"
	PrizeGiftCard PrizeType = "gift_card"
	PrizeTech     PrizeType = "tech"
)

// SourceOrganic tags offers that come from the locally curated seed file
// rather than a CPA network feed.
const SourceOrganic = "organic"

// Offer is a single affiliate/reward opportunity. Instances are treated as
// values: the pipeline builds each one once at normalization time and never
// re-derives its fields afterwards. The only later mutations are the score
// (attached by the scorer) and the entry URL (rewritten exactly once by the
// cloaker).
type Offer struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	PrizeType PrizeType `json:"prize_type"`
	PrizeName string    `json:"prize_name"`

	// Payout is the network's compensation, not the user-facing prize value.
	Payout decimal.Decimal `json:"payout"`

	// PrizeValue is the user-facing named prize value. Only organic offers
	// carry one; network offers approximate it as payout*100 inside the
	// scorer.
	PrizeValue *decimal.Decimal `json:"prize_value,omitempty"`

	// Geo holds ISO country codes, or the single wildcard "*".
	Geo []string `json:"geo"`

	EntryURL string `json:"entry_url"`
	Mobile   bool   `json:"mobile"`

	// Deadline is optional. Offers past deadline are not dropped by the
	// pipeline; the deadline only feeds the urgency score.
	Deadline *time.Time `json:"deadline_iso,omitempty"`

	// VerifiedLive is tri-state for organic offers: nil and true both count
	// as live, explicit false excludes the offer.
	VerifiedLive *bool `json:"verified_live,omitempty"`

	Score int `json:"score"`
}

// GeoWildcard marks an offer as available in any country.
const GeoWildcard = "*"

// ComposeID builds the manifest-unique offer id from provenance and the
// source's native identifier.
func ComposeID(source, nativeID string) string {
	return fmt.Sprintf("%s:%s", source, nativeID)
}

// IsOrganic reports whether the offer came from the curated seed.
func (o Offer) IsOrganic() bool {
	return o.Source == SourceOrganic
}

// HasWildcardGeo reports whether the offer targets any country.
func (o Offer) HasWildcardGeo() bool {
	for _, g := range o.Geo {
		if g == GeoWildcard {
			return true
		}
	}
	return false
}
