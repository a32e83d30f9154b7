package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"offergate/internal/clicklog"
	"offergate/internal/manifest"
	"offergate/internal/pipeline"
	"offergate/internal/scheduler"
	"offergate/internal/server"
)

// Serve runs the edge HTTP server until interrupted. The last persisted
// manifest is loaded at startup; when server.rebuild_interval is set, the
// pipeline re-runs on that interval and swaps the served index only after a
// successful persist.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	classifier, closeCounter, err := a.newClassifier()
	if err != nil {
		return err
	}
	defer closeCounter()

	store, closeStore, err := a.openClickStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; click persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	offers := manifest.Load(a.Config.Manifest.Path, a.Logger)
	if len(offers) == 0 {
		a.Logger.Warn().Str("path", a.Config.Manifest.Path).Msg("starting with empty manifest; run build first")
	}
	holder := server.NewManifestHolder(offers)

	var clicks clicklog.ClickStore
	if store != nil {
		clicks = store
	}

	srv := server.New(server.Options{
		Classifier: classifier,
		Holder:     holder,
		Clicks:     clicks,
		TermsURL:   a.Config.Cloak.TermsURL,
	}, a.Logger)

	if interval := a.Config.Server.RebuildInterval; interval > 0 {
		p := pipeline.New(a.Config, a.Logger)
		sched := scheduler.New(scheduler.Options{Interval: interval}, a.Logger)
		go func() {
			_ = sched.Run(ctx, func(ctx context.Context) error {
				rebuilt, err := p.Run(ctx)
				if err != nil {
					return err
				}
				holder.Swap(rebuilt)
				return nil
			})
		}()
	}

	a.Logger.Info().Str("listen", a.Config.Server.Listen).Msg("starting edge server")
	err = srv.Run(ctx, a.Config.Server.Listen)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.Error().Err(err).Msg("server terminated with error")
		return err
	}

	a.Logger.Info().Msg("edge server stopped")
	return nil
}
