package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"offergate/internal/cloak"
)

func testNetworkOptions(baseURL string) NetworkOptions {
	return NetworkOptions{
		Name:       "cpa-a",
		BaseURL:    baseURL,
		UserID:     "u-1",
		Salt:       "pepper",
		TrackingID: "track-1",
		Domain:     "win.example",
		Limit:      25,
		Timeout:    time.Second,
	}
}

func TestNetworkSourceSuccess(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"offers": []map[string]any{
				{
					"offer_id":   "555",
					"offer_name": "Gift Card Drop",
					"payout":     "1.75",
					"country":    "US, CA",
					"offerlink":  "https://net.test/go/555",
					"mobile":     1,
				},
			},
		})
	}))
	defer srv.Close()

	src := NewNetworkSource(testNetworkOptions(srv.URL), zerolog.Nop())
	records, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.NativeID != "555" || r.Name != "Gift Card Drop" {
		t.Fatalf("record = %#v", r)
	}
	if !r.Mobile {
		t.Fatal("mobile flag should decode from numeric 1")
	}
	if len(r.Geo) != 2 || r.Geo[1] != "CA" {
		t.Fatalf("geo = %v", r.Geo)
	}

	if gotQuery["user_id"] != "u-1" {
		t.Errorf("user_id = %s", gotQuery["user_id"])
	}
	if gotQuery["key"] != cloak.SignTracking("pepper", "track-1") {
		t.Errorf("key should be the signed tracking token, got %s", gotQuery["key"])
	}
	if gotQuery["limit"] != "25" || gotQuery["tracking_id"] != "track-1" || gotQuery["domain"] != "win.example" {
		t.Errorf("query = %#v", gotQuery)
	}
}

func TestNetworkSourceNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewNetworkSource(testNetworkOptions(srv.URL), zerolog.Nop())
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("non-2xx must be an error")
	}
}

func TestNetworkSourceShapeMismatchIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	src := NewNetworkSource(testNetworkOptions(srv.URL), zerolog.Nop())
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("payload without offers array must be an error")
	}
}

func TestNetworkSourceMissingCredentials(t *testing.T) {
	opts := testNetworkOptions("https://feed.test")
	opts.UserID = ""
	src := NewNetworkSource(opts, zerolog.Nop())
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("missing credentials must be an error")
	}
}

func TestFetchAllDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	broken := NewNetworkSource(testNetworkOptions(srv.URL), zerolog.Nop())
	out := FetchAll(context.Background(), []Source{broken}, zerolog.Nop())

	records, ok := out["cpa-a"]
	if !ok {
		t.Fatal("failed source should still appear in the result map")
	}
	if len(records) != 0 {
		t.Fatalf("failed source should degrade to empty, got %d records", len(records))
	}
}
