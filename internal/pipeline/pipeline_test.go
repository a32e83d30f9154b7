package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"offergate/internal/config"
	"offergate/internal/manifest"
)

func writeSeed(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "seed_offers.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func baseConfig(dir, seedPath string) *config.Config {
	return &config.Config{
		Sources: config.SourcesConfig{SeedPath: seedPath},
		Filter: config.FilterConfig{
			AllowedGeos:   []string{"US", "CA"},
			MinPrizeValue: 100,
		},
		Cloak: config.CloakConfig{
			BaseURL:     "https://site.example",
			UTMSource:   "site",
			UTMMedium:   "referral",
			UTMCampaign: "offers",
		},
		Manifest: config.ManifestConfig{Path: filepath.Join(dir, "manifest.json")},
		Tracking: config.TrackingConfig{Salt: "pepper", ID: "trk-1"},
	}
}

func TestRunDropsOrganicBelowMinimumValue(t *testing.T) {
	dir := t.TempDir()
	seed := writeSeed(t, dir, `[
		{"id": "g1", "name": "$50 Cash", "prize_value": 50, "geo": ["US"],
		 "entry_url": "https://win.example/g1", "verified_live": true}
	]`)
	cfg := baseConfig(dir, seed)

	got, err := New(cfg, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("manifest = %+v, want empty: prize value 50 is under the minimum of 100", got)
	}
	if loaded := manifest.Load(cfg.Manifest.Path, zerolog.Nop()); len(loaded) != 0 {
		t.Fatalf("persisted manifest not empty: %+v", loaded)
	}
}

func TestRunMergesOrganicAndNetworkOffers(t *testing.T) {
	dir := t.TempDir()
	seed := writeSeed(t, dir, `[
		{"id": "g1", "name": "$750 Cash", "prize_value": 750, "geo": ["US"],
		 "entry_url": "https://win.example/g1", "verified_live": true}
	]`)

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user_id") != "u-77" {
			t.Errorf("user_id = %q", r.URL.Query().Get("user_id"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"offers": []map[string]any{
				{
					"offer_id":   "901",
					"offer_name": "Complete a Survey",
					"payout":     "3.00",
					"country":    "US",
					"offerlink":  "https://cpx.example/o/901",
				},
			},
		})
	}))
	defer feed.Close()

	cfg := baseConfig(dir, seed)
	cfg.Sources.Networks = []config.NetworkConfig{
		{Name: "cpx", BaseURL: feed.URL, UserID: "u-77"},
	}

	got, err := New(cfg, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("manifest has %d offers, want 2: %+v", len(got), got)
	}

	// Both are cash-bucket offers; the higher-scored organic prize leads.
	if got[0].ID != "organic:g1" || got[1].ID != "cpx:901" {
		t.Fatalf("order = [%s, %s]", got[0].ID, got[1].ID)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not descending: %d then %d", got[0].Score, got[1].Score)
	}
}

func TestRunCloaksEveryEntryURLOnce(t *testing.T) {
	dir := t.TempDir()
	seed := writeSeed(t, dir, `[
		{"id": "g1", "name": "$750 Cash", "prize_value": 750, "geo": ["US"],
		 "entry_url": "https://win.example/g1?ref=a", "verified_live": true}
	]`)
	cfg := baseConfig(dir, seed)

	got, err := New(cfg, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("manifest has %d offers, want 1", len(got))
	}

	entry, err := url.Parse(got[0].EntryURL)
	if err != nil {
		t.Fatalf("parse cloaked url: %v", err)
	}
	if entry.Host != "site.example" || entry.Path != "/sv" {
		t.Fatalf("cloaked url = %s", got[0].EntryURL)
	}

	q := entry.Query()
	if q.Get("dest") != "https://win.example/g1?ref=a" {
		t.Fatalf("dest = %q, want the original entry url intact", q.Get("dest"))
	}
	if q.Get("oid") != "organic:g1" || q.Get("net") != "organic" {
		t.Fatalf("tracking params: oid=%q net=%q", q.Get("oid"), q.Get("net"))
	}
	if strings.Contains(q.Get("dest"), "site.example") {
		t.Fatal("destination was cloaked more than once")
	}
}

func TestRunEnforcesBucketQuota(t *testing.T) {
	dir := t.TempDir()

	var seeds []string
	for i := 0; i < 20; i++ {
		seeds = append(seeds, fmt.Sprintf(
			`{"id": "g%d", "name": "$500 Cash Reward", "prize_value": 500, "geo": ["US"],
			  "entry_url": "https://win.example/g%d", "verified_live": true}`, i, i))
	}
	seed := writeSeed(t, dir, "["+strings.Join(seeds, ",")+"]")
	cfg := baseConfig(dir, seed)

	got, err := New(cfg, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 15 {
		t.Fatalf("cash bucket kept %d offers, want the quota of 15", len(got))
	}
}

func TestRunSurvivesNetworkFailure(t *testing.T) {
	dir := t.TempDir()
	seed := writeSeed(t, dir, `[
		{"id": "g1", "name": "$750 Cash", "prize_value": 750, "geo": ["US"],
		 "entry_url": "https://win.example/g1", "verified_live": true}
	]`)

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer feed.Close()

	cfg := baseConfig(dir, seed)
	cfg.Sources.Networks = []config.NetworkConfig{
		{Name: "cpx", BaseURL: feed.URL, UserID: "u-77"},
	}

	got, err := New(cfg, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].ID != "organic:g1" {
		t.Fatalf("got %+v, want just the organic offer", got)
	}
}

func TestRunUsesCSVSourceWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	seed := writeSeed(t, dir, `[]`)

	csvPath := filepath.Join(dir, "offers.csv")
	csv := "OfferID,OfferName,Payout,Countries,PreviewUrl\n" +
		"55,Amazon Gift Card,2.10,US;CA,https://import.example/o/55\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig(dir, seed)
	cfg.Sources.CSVPath = csvPath
	cfg.Sources.CSVName = "cpa-import"

	got, err := New(cfg, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].ID != "cpa-import:55" {
		t.Fatalf("got %+v, want the CSV offer", got)
	}
}
