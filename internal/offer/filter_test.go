package offer

import (
	"testing"

	"github.com/shopspring/decimal"
)

func boolPtr(v bool) *bool { return &v }

func TestFilterGeoIntersection(t *testing.T) {
	cfg := FilterConfig{AllowedGeos: []string{"us", "CA"}}

	offers := []Offer{
		{ID: "1", Source: "cpa-a", Geo: []string{"US"}},
		{ID: "2", Source: "cpa-a", Geo: []string{"gb"}},
		{ID: "3", Source: "cpa-a", Geo: []string{"DE", "ca"}},
		{ID: "4", Source: "cpa-a", Geo: []string{GeoWildcard}},
	}

	kept := Filter(offers, cfg)
	want := map[string]bool{"1": true, "3": true, "4": true}
	if len(kept) != len(want) {
		t.Fatalf("expected %d offers, got %d", len(want), len(kept))
	}
	for _, o := range kept {
		if !want[o.ID] {
			t.Errorf("offer %s should have been filtered out", o.ID)
		}
	}
}

func TestFilterMinValueOrganicOnly(t *testing.T) {
	cfg := FilterConfig{MinPrizeValue: decimal.NewFromInt(100)}

	low := decimal.NewFromInt(50)
	offers := []Offer{
		{ID: "organic:low", Source: SourceOrganic, Geo: []string{GeoWildcard}, PrizeValue: &low},
		{ID: "cpa-a:low", Source: "cpa-a", Geo: []string{GeoWildcard}, Payout: decimal.NewFromFloat(0.5)},
	}

	kept := Filter(offers, cfg)
	if len(kept) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(kept))
	}
	if kept[0].ID != "cpa-a:low" {
		t.Fatalf("network offers are exempt from the minimum-value check, kept %s", kept[0].ID)
	}
}

func TestFilterVerifiedLiveTriState(t *testing.T) {
	cfg := FilterConfig{MinPrizeValue: decimal.NewFromInt(10)}
	value := decimal.NewFromInt(500)

	offers := []Offer{
		{ID: "organic:absent", Source: SourceOrganic, Geo: []string{GeoWildcard}, PrizeValue: &value},
		{ID: "organic:true", Source: SourceOrganic, Geo: []string{GeoWildcard}, PrizeValue: &value, VerifiedLive: boolPtr(true)},
		{ID: "organic:false", Source: SourceOrganic, Geo: []string{GeoWildcard}, PrizeValue: &value, VerifiedLive: boolPtr(false)},
	}

	kept := Filter(offers, cfg)
	if len(kept) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(kept))
	}
	for _, o := range kept {
		if o.ID == "organic:false" {
			t.Fatal("explicit verified_live=false must be excluded")
		}
	}
}

func TestFilterEmptyAllowlistPassesAllGeos(t *testing.T) {
	offers := []Offer{{ID: "1", Source: "cpa-a", Geo: []string{"JP"}}}
	if kept := Filter(offers, FilterConfig{}); len(kept) != 1 {
		t.Fatal("empty allow-list should pass every geo")
	}
}
