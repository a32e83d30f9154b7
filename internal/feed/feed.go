package feed

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RawOffer is the intermediate record every adapter emits before
// normalization. Fields the source does not supply stay zero-valued.
type RawOffer struct {
	NativeID     string
	Name         string
	Payout       decimal.Decimal
	PrizeValue   *decimal.Decimal
	Geo          []string
	EntryURL     string
	Mobile       bool
	Deadline     string
	VerifiedLive *bool
}

// Source fetches raw offers from one upstream. Implementations return an
// error for any failure (network, credentials, malformed payload); the
// degrade-to-empty contract is applied at the boundary by FetchAll, not
// inside the adapters, so the error stays available for logging.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]RawOffer, error)
}

// FetchAll runs every source and converts failures to empty record sets. A
// missing upstream must never abort the whole pipeline run; it just
// contributes nothing this time.
func FetchAll(ctx context.Context, sources []Source, logger zerolog.Logger) map[string][]RawOffer {
	out := make(map[string][]RawOffer, len(sources))
	for _, src := range sources {
		records, err := src.Fetch(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("source", src.Name()).Msg("source fetch failed; degrading to empty")
			out[src.Name()] = nil
			continue
		}
		logger.Debug().Str("source", src.Name()).Int("records", len(records)).Msg("source fetched")
		out[src.Name()] = records
	}
	return out
}
