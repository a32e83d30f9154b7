package app

import (
	"context"

	"offergate/internal/pipeline"
)

// Build runs the offer aggregation pipeline once and persists the manifest.
func (a *App) Build(ctx context.Context) error {
	p := pipeline.New(a.Config, a.Logger)

	offers, err := p.Run(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("pipeline run failed")
		return err
	}

	a.Logger.Info().Int("offers", len(offers)).Msg("pipeline run complete")
	return nil
}
