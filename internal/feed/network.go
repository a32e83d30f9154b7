package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"offergate/internal/cloak"
)

// NetworkOptions parameterise a CPA network feed adapter.
type NetworkOptions struct {
	Name       string
	BaseURL    string
	UserID     string
	Salt       string
	TrackingID string
	Domain     string
	Limit      int
	ShowAll    bool
	Timeout    time.Duration
	UserAgent  string
}

// NetworkSource fetches offers from a CPA network's JSON feed. Requests are
// signed by hashing the shared salt with the tracking identifier; the network
// validates the key server-side.
type NetworkSource struct {
	opts   NetworkOptions
	logger zerolog.Logger
	client *http.Client
}

// NewNetworkSource constructs a network feed adapter.
func NewNetworkSource(opts NetworkOptions, logger zerolog.Logger) *NetworkSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NetworkSource{
		opts:   opts,
		logger: logger.With().Str("component", "network_source").Str("network", opts.Name).Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// Name identifies the network in merge ordering and offer ids.
func (s *NetworkSource) Name() string { return s.opts.Name }

// Fetch retrieves and decodes the feed. Any non-2xx status or JSON shape
// mismatch is an error; FetchAll turns it into "no offers this run".
func (s *NetworkSource) Fetch(ctx context.Context) ([]RawOffer, error) {
	if s.opts.BaseURL == "" {
		return nil, errors.New("network feed base url not configured")
	}
	if s.opts.UserID == "" || s.opts.Salt == "" {
		return nil, errors.New("network feed credentials not configured")
	}

	limit := s.opts.Limit
	if limit <= 0 {
		limit = 50
	}

	q := url.Values{}
	q.Set("user_id", s.opts.UserID)
	q.Set("key", cloak.SignTracking(s.opts.Salt, s.opts.TrackingID))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("tracking_id", s.opts.TrackingID)
	q.Set("domain", s.opts.Domain)
	if s.opts.ShowAll {
		q.Set("showall", "1")
	}

	endpoint := strings.TrimRight(s.opts.BaseURL, "/") + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "offergate/1.0")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var body feedResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}
	if body.Offers == nil {
		return nil, errors.New("feed payload missing offers array")
	}

	records := make([]RawOffer, 0, len(body.Offers))
	for _, fo := range body.Offers {
		if fo.OfferID == "" || fo.OfferURL == "" {
			continue
		}
		records = append(records, fo.toRaw())
	}
	return records, nil
}

type feedResponse struct {
	Offers []feedOffer `json:"offers"`
}

type feedOffer struct {
	OfferID   string          `json:"offer_id"`
	OfferName string          `json:"offer_name"`
	Payout    json.RawMessage `json:"payout"`
	Country   string          `json:"country"`
	OfferURL  string          `json:"offerlink"`
	Mobile    json.RawMessage `json:"mobile"`
	Expires   string          `json:"expires"`
}

func (f feedOffer) toRaw() RawOffer {
	var geo []string
	for _, c := range strings.Split(f.Country, ",") {
		if c = strings.TrimSpace(c); c != "" {
			geo = append(geo, c)
		}
	}

	return RawOffer{
		NativeID: f.OfferID,
		Name:     f.OfferName,
		Payout:   parseLooseDecimal(f.Payout),
		Geo:      geo,
		EntryURL: f.OfferURL,
		Mobile:   parseLooseBool(f.Mobile),
		Deadline: strings.TrimSpace(f.Expires),
	}
}

// Feeds are inconsistent about numeric encoding: some send payout as a JSON
// number, others as a quoted string. Same for the mobile flag.
func parseLooseDecimal(raw json.RawMessage) decimal.Decimal {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseLooseBool(raw json.RawMessage) bool {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(raw)), `"`))
	return s == "1" || s == "true" || s == "yes"
}

var _ Source = (*NetworkSource)(nil)
