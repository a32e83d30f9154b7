package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"offergate/internal/clicklog"
	"offergate/internal/edge"
	"offergate/internal/offer"
	"offergate/internal/ratelimit"
)

type captureStore struct {
	events chan clicklog.ClickEvent
}

func (s *captureStore) InsertClick(_ context.Context, event clicklog.ClickEvent) error {
	s.events <- event
	return nil
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Classifier == nil {
		opts.Classifier = edge.New(edge.Options{}, ratelimit.NewMemoryCounter(), zerolog.Nop())
	}
	if opts.Holder == nil {
		opts.Holder = NewManifestHolder(nil)
	}
	return New(opts, zerolog.Nop())
}

func visitorGet(target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	r.Header.Set("CF-IPCountry", "US")
	r.RemoteAddr = "203.0.113.20:5000"
	return r
}

func TestRedirectMissingDest(t *testing.T) {
	s := newTestServer(t, Options{})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, visitorGet("/sv"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRedirectInvalidDest(t *testing.T) {
	s := newTestServer(t, Options{})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, visitorGet("/sv?dest=not-a-url"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRedirectFillsUTMDefaults(t *testing.T) {
	s := newTestServer(t, Options{TermsURL: "https://site.example/terms"})
	w := httptest.NewRecorder()
	target := "/sv?" + url.Values{
		"dest":         {"https://offers.example/landing?step=1"},
		"utm_source":   {"site"},
		"utm_medium":   {"redirect"},
		"utm_campaign": {"offers"},
		"tid":          {"t-123"},
		"net":          {"cpagrip"},
		"oid":          {"cpagrip:99"},
	}.Encode()
	s.Handler().ServeHTTP(w, visitorGet(target))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	q := loc.Query()
	if q.Get("step") != "1" {
		t.Fatal("destination's own query parameters must survive")
	}
	if q.Get("utm_source") != "site" || q.Get("utm_medium") != "redirect" || q.Get("utm_campaign") != "offers" {
		t.Fatalf("UTM set not applied: %v", q)
	}
	if q.Get("tid") != "t-123" {
		t.Fatalf("tid = %q", q.Get("tid"))
	}
	if q.Get("disclosure") != "1" {
		t.Fatal("disclosure flag missing")
	}
	if q.Get("terms") != "https://site.example/terms" {
		t.Fatalf("terms = %q", q.Get("terms"))
	}
}

func TestRedirectDoesNotOverrideDestinationUTM(t *testing.T) {
	s := newTestServer(t, Options{})
	w := httptest.NewRecorder()
	dest := "https://offers.example/landing?utm_source=partner"
	target := "/sv?" + url.Values{
		"dest":       {dest},
		"utm_source": {"site"},
		"utm_medium": {"redirect"},
	}.Encode()
	s.Handler().ServeHTTP(w, visitorGet(target))

	loc, _ := url.Parse(w.Header().Get("Location"))
	q := loc.Query()
	if q.Get("utm_source") != "partner" {
		t.Fatalf("utm_source = %q, destination's own value must win", q.Get("utm_source"))
	}
	if q.Get("utm_medium") != "" {
		t.Fatal("no UTM defaults should be added when destination already carries utm_source")
	}
}

func TestRedirectLogsClickAsynchronously(t *testing.T) {
	store := &captureStore{events: make(chan clicklog.ClickEvent, 1)}
	s := newTestServer(t, Options{Clicks: store})

	w := httptest.NewRecorder()
	target := "/sv?" + url.Values{
		"dest": {"https://offers.example/landing"},
		"oid":  {"cpagrip:7"},
		"net":  {"cpagrip"},
	}.Encode()
	s.Handler().ServeHTTP(w, visitorGet(target))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}

	select {
	case event := <-store.events:
		if event.OfferID != "cpagrip:7" || event.Network != "cpagrip" {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.Country != "US" {
			t.Fatalf("country = %q", event.Country)
		}
		if event.Fingerprint == "" {
			t.Fatal("fingerprint missing")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("click event never arrived")
	}
}

func TestHealthBypassesClassifier(t *testing.T) {
	s := newTestServer(t, Options{})
	w := httptest.NewRecorder()

	// Probe traffic: tooling user agent, no country header. The classifier
	// would reject this, so /health must sit outside it.
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("User-Agent", "curl/8.0")
	s.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
}

func TestGuardedRouteRejectsBots(t *testing.T) {
	s := newTestServer(t, Options{})
	w := httptest.NewRecorder()

	r := visitorGet("/sv?dest=https://offers.example/landing")
	r.Header.Set("User-Agent", "Googlebot/2.1")
	s.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if w.Header().Get("Location") != "" {
		t.Fatal("rejected request must not leak the redirect")
	}
}

func TestOffersEndpointFiltersByGeo(t *testing.T) {
	holder := NewManifestHolder([]offer.Offer{
		{ID: "a", Geo: []string{"US"}, Payout: decimal.NewFromInt(3), EntryURL: "https://x.example/a"},
		{ID: "b", Geo: []string{"DE"}, Payout: decimal.NewFromInt(3), EntryURL: "https://x.example/b"},
	})
	s := newTestServer(t, Options{Holder: holder})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, visitorGet("/offers.json?geo=DE"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []offer.Offer
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("got %+v, want only offer b", got)
	}
}

func TestManifestHolderSwapIsVisible(t *testing.T) {
	holder := NewManifestHolder(nil)
	if holder.Index().Len() != 0 {
		t.Fatal("empty holder should serve zero offers")
	}
	holder.Swap([]offer.Offer{{ID: "a", Geo: []string{offer.GeoWildcard}, EntryURL: "https://x.example/a"}})
	if holder.Index().Len() != 1 {
		t.Fatal("swap not visible through Index()")
	}
}
