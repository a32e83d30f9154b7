package cloak

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// DefaultUTM carries the campaign defaults attached to every cloaked URL.
type DefaultUTM struct {
	Source   string
	Medium   string
	Campaign string
}

// Cloaker rewrites raw affiliate URLs into first-party redirect URLs that
// carry tracking metadata. Cloak is one-way and not idempotent: applying it
// to an already cloaked URL nests one encoded destination inside another and
// corrupts the tracking payload, so the pipeline calls it exactly once per
// offer, after scoring, filtering, and merging are finalized.
type Cloaker struct {
	baseURL string
	path    string
	utm     DefaultUTM
}

// RedirectPath is the fixed first-party redirect route.
const RedirectPath = "/sv"

// TrackingPlaceholder is substituted by the ad network at click time.
const TrackingPlaceholder = "{tracking_id}"

// New constructs a Cloaker rooted at the given first-party base URL.
func New(baseURL string, utm DefaultUTM) *Cloaker {
	return &Cloaker{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    RedirectPath,
		utm:     utm,
	}
}

// Cloak builds the first-party redirect URL for one offer.
func (c *Cloaker) Cloak(rawURL, offerID, network string) string {
	q := url.Values{}
	q.Set("dest", rawURL)
	q.Set("tid", TrackingPlaceholder)
	if c.utm.Source != "" {
		q.Set("utm_source", c.utm.Source)
	}
	if c.utm.Medium != "" {
		q.Set("utm_medium", c.utm.Medium)
	}
	if c.utm.Campaign != "" {
		q.Set("utm_campaign", c.utm.Campaign)
	}
	q.Set("net", network)
	q.Set("oid", offerID)
	return c.baseURL + c.path + "?" + q.Encode()
}

// SignTracking derives the feed request key from the shared salt and a
// caller-supplied tracking identifier: one-way hash, hex-encoded, truncated
// to 32 characters.
func SignTracking(salt, trackingID string) string {
	sum := sha256.Sum256([]byte(salt + trackingID))
	return hex.EncodeToString(sum[:])[:32]
}
