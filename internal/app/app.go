package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"offergate/internal/clicklog"
	"offergate/internal/config"
	"offergate/internal/edge"
	"offergate/internal/ratelimit"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newClassifier wires the edge guard chain. When no Redis address is
// configured the rate limit falls back to a process-local counter, which is
// correct for single-instance deployments and keeps tests hermetic.
func (a *App) newClassifier() (*edge.Classifier, func(), error) {
	var counter ratelimit.Counter
	closer := func() {}

	if addr := a.Config.RateLimit.RedisAddr; addr != "" {
		rc, err := ratelimit.NewRedisCounter(addr, a.Config.RateLimit.RedisPassword, a.Config.RateLimit.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		counter = rc
		closer = func() { rc.Close() }
	} else {
		a.Logger.Warn().Msg("ratelimit.redis_addr not configured; using in-process counter")
		counter = ratelimit.NewMemoryCounter()
	}

	classifier := edge.New(edge.Options{
		BotAllowlist:  a.Config.Edge.BotAllowlist,
		RatePerMinute: a.Config.RateLimit.PerMinute,
		RateWindow:    time.Minute,
	}, counter, a.Logger)

	return classifier, closer, nil
}

// openClickStore returns nil when click persistence is not configured; the
// dispatcher then logs clicks to the structured log only.
func (a *App) openClickStore(ctx context.Context) (*clicklog.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := clicklog.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := clicklog.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting click analytics.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}
