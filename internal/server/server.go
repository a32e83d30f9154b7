package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"offergate/internal/clicklog"
	"offergate/internal/edge"
	"offergate/internal/offer"
)

// ManifestHolder hands the current offer index to request handlers. The
// index is swapped atomically on rebuild, so in-flight requests keep the
// snapshot they started with and a failed rebuild never degrades serving.
type ManifestHolder struct {
	index atomic.Pointer[offer.OfferIndex]
}

// NewManifestHolder seeds the holder with an initial manifest.
func NewManifestHolder(offers []offer.Offer) *ManifestHolder {
	h := &ManifestHolder{}
	h.Swap(offers)
	return h
}

// Swap replaces the served manifest.
func (h *ManifestHolder) Swap(offers []offer.Offer) {
	h.index.Store(offer.NewIndex(offers))
}

// Index returns the current snapshot.
func (h *ManifestHolder) Index() *offer.OfferIndex {
	return h.index.Load()
}

// Options wire the HTTP layer.
type Options struct {
	Classifier *edge.Classifier
	Holder     *ManifestHolder
	Clicks     clicklog.ClickStore
	TermsURL   string
}

// Server is the edge HTTP layer: classifier-guarded offer serving and the
// cloaked redirect endpoint.
type Server struct {
	opts   Options
	logger zerolog.Logger
	router chi.Router
}

// New builds the router with the classifier in front of every public route.
func New(opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		opts:   opts,
		logger: logger.With().Str("component", "server").Logger(),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Liveness stays outside the classifier: infra probes are exactly the
	// traffic the bot guard would reject.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.classify)
		r.Get("/sv", s.handleRedirect)
		r.Get("/offers.json", s.handleOffers)
	})

	s.router = r
	return s
}

// Handler exposes the assembled router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains with a grace period.
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// classify runs the guard chain and short-circuits rejected requests. The
// classification result lives only for this request.
func (s *Server) classify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := s.opts.Classifier.Classify(r)
		for k, v := range result.Headers {
			w.Header().Set(k, v)
		}
		if !result.Allow {
			s.logger.Debug().
				Str("reason", result.Reason).
				Int("status", result.Status).
				Str("path", r.URL.Path).
				Msg("request rejected")
			w.WriteHeader(result.Status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleOffers serves ranked offers from the index, narrowed by visitor geo
// and device.
func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	geo := r.URL.Query().Get("geo")
	if geo == "" {
		geo = r.Header.Get("CF-IPCountry")
	}
	mobile := r.URL.Query().Get("device") == "mobile"

	offers := s.opts.Holder.Index().Lookup(geo, mobile)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(offers); err != nil {
		s.logger.Warn().Err(err).Msg("encode offers response failed")
	}
}
