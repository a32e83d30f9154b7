package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SeedSource reads the curated organic offers from a local JSON file. These
// are hand-maintained giveaways, so they carry a named prize value and a
// liveness flag the network feeds do not have.
type SeedSource struct {
	path   string
	logger zerolog.Logger
}

// NewSeedSource constructs the organic seed adapter.
func NewSeedSource(path string, logger zerolog.Logger) *SeedSource {
	return &SeedSource{
		path:   path,
		logger: logger.With().Str("component", "seed_source").Logger(),
	}
}

// Name returns the organic provenance tag.
func (s *SeedSource) Name() string { return "organic" }

type seedOffer struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PrizeValue   *float64 `json:"prize_value"`
	Geo          []string `json:"geo"`
	EntryURL     string   `json:"entry_url"`
	Mobile       bool     `json:"mobile"`
	Deadline     string   `json:"deadline_iso"`
	VerifiedLive *bool    `json:"verified_live"`
}

// Fetch parses the seed file. A missing or malformed file is an error here;
// FetchAll downgrades it to an empty organic set.
func (s *SeedSource) Fetch(ctx context.Context) ([]RawOffer, error) {
	if s.path == "" {
		return nil, fmt.Errorf("seed source: path not configured")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seeds []seedOffer
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	records := make([]RawOffer, 0, len(seeds))
	for _, seed := range seeds {
		if seed.ID == "" || seed.EntryURL == "" {
			continue
		}
		record := RawOffer{
			NativeID:     seed.ID,
			Name:         seed.Name,
			Geo:          seed.Geo,
			EntryURL:     seed.EntryURL,
			Mobile:       seed.Mobile,
			Deadline:     seed.Deadline,
			VerifiedLive: seed.VerifiedLive,
		}
		if seed.PrizeValue != nil && *seed.PrizeValue >= 0 {
			v := decimal.NewFromFloat(*seed.PrizeValue)
			record.PrizeValue = &v
		}
		records = append(records, record)
	}
	return records, nil
}

var _ Source = (*SeedSource)(nil)
