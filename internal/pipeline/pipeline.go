package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"offergate/internal/cloak"
	"offergate/internal/config"
	"offergate/internal/feed"
	"offergate/internal/manifest"
	"offergate/internal/offer"
)

// Pipeline runs the single-pass offer aggregation: fetch every source,
// normalize, filter, score, merge, bucket-select, cloak, persist. Each run
// rebuilds the manifest from scratch; there is no incremental update. A run
// that cannot write its output fails without touching the previous manifest,
// so already-served traffic keeps using the last good state.
type Pipeline struct {
	cfg      *config.Config
	organic  feed.Source
	networks []feed.Source
	cloaker  *cloak.Cloaker
	keywords offer.Keywords
	quotas   offer.Quotas
	logger   zerolog.Logger
	now      func() time.Time
}

// New assembles a pipeline from configuration. The network slice order is
// preserved all the way into the merge step, where it acts as the tie-break
// after organic offers.
func New(cfg *config.Config, logger zerolog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		organic:  feed.NewSeedSource(cfg.Sources.SeedPath, logger),
		cloaker:  cloak.New(cfg.Cloak.BaseURL, cloak.DefaultUTM{Source: cfg.Cloak.UTMSource, Medium: cfg.Cloak.UTMMedium, Campaign: cfg.Cloak.UTMCampaign}),
		keywords: offer.DefaultKeywords(),
		quotas:   offer.DefaultQuotas(),
		logger:   logger.With().Str("component", "pipeline").Logger(),
		now:      time.Now,
	}

	if cfg.Sources.CSVPath != "" {
		p.networks = append(p.networks, feed.NewCSVSource(cfg.Sources.CSVName, cfg.Sources.CSVPath, logger))
	}
	for _, nc := range cfg.Sources.Networks {
		p.networks = append(p.networks, feed.NewNetworkSource(feed.NetworkOptions{
			Name:       nc.Name,
			BaseURL:    nc.BaseURL,
			UserID:     nc.UserID,
			Salt:       cfg.Tracking.Salt,
			TrackingID: cfg.Tracking.ID,
			Domain:     nc.Domain,
			Limit:      nc.Limit,
			ShowAll:    nc.ShowAll,
			Timeout:    nc.RequestTimeout,
		}, logger))
	}
	return p
}

// Run executes one aggregation pass and returns the persisted manifest.
func (p *Pipeline) Run(ctx context.Context) ([]offer.Offer, error) {
	offers := p.Build(ctx)

	if err := manifest.Write(p.cfg.Manifest.Path, offers); err != nil {
		return nil, fmt.Errorf("persist manifest: %w", err)
	}

	p.logger.Info().Int("offers", len(offers)).Str("path", p.cfg.Manifest.Path).Msg("manifest published")
	return offers, nil
}

// Build produces the final offer list without persisting it. Exposed
// separately so serve-mode rebuilds can swap the in-memory index even when
// the caller handles persistence itself.
func (p *Pipeline) Build(ctx context.Context) []offer.Offer {
	now := p.now()

	sources := append([]feed.Source{p.organic}, p.networks...)
	fetched := feed.FetchAll(ctx, sources, p.logger)

	filterCfg := offer.FilterConfig{
		AllowedGeos:   p.cfg.Filter.AllowedGeos,
		MinPrizeValue: decimal.NewFromFloat(p.cfg.Filter.MinPrizeValue),
	}

	prepare := func(source string) []offer.Offer {
		normalized := offer.NormalizeAll(source, fetched[source], p.keywords)
		filtered := offer.Filter(normalized, filterCfg)
		return offer.ScoreAll(filtered, now, p.keywords)
	}

	// Merge order: organic first, then each network in configured order.
	groups := make([][]offer.Offer, 0, len(sources))
	groups = append(groups, prepare(p.organic.Name()))
	for _, src := range p.networks {
		groups = append(groups, prepare(src.Name()))
	}

	merged := offer.Merge(groups...)
	selected := offer.Select(merged, p.quotas)

	// Cloaking is last and exactly once: re-cloaking a cloaked URL nests
	// the encoded destination and corrupts the tracking payload.
	for i := range selected {
		selected[i].EntryURL = p.cloaker.Cloak(selected[i].EntryURL, selected[i].ID, selected[i].Source)
	}

	p.logger.Debug().
		Int("merged", len(merged)).
		Int("selected", len(selected)).
		Msg("pipeline pass complete")
	return selected
}
