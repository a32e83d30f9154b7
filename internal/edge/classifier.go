package edge

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"offergate/internal/ratelimit"
)

// Classification is the per-request verdict. It lives only for the duration
// of one request and is never persisted.
type Classification struct {
	Allow   bool
	Reason  string
	Status  int
	Headers map[string]string
}

// Options tune the classifier guards. Zero values fall back to the fixed
// production defaults.
type Options struct {
	BotPatterns    []string
	BotAllowlist   []string
	BlockedASNs    []string
	BlockedGeos    []string
	RatePerMinute  int
	RateWindow     time.Duration
	CountryHeaders []string
	ASNHeader      string
}

// Classifier runs the guard chain for incoming requests: bot heuristics,
// ASN blocklist, country blocklist, rate limit. The order is cost-ascending:
// static pattern matches first, the storage-backed rate check last. The first
// guard to reject short-circuits the rest.
type Classifier struct {
	opts    Options
	counter ratelimit.Counter
	logger  zerolog.Logger
}

// Rejection reasons reported in logs.
const (
	ReasonBot         = "bot_user_agent"
	ReasonBlockedASN  = "blocked_asn"
	ReasonBlockedGeo  = "blocked_country"
	ReasonNoGeo       = "missing_country"
	ReasonRateLimited = "rate_limited"
)

// New constructs a Classifier; counter may be nil to disable rate limiting.
func New(opts Options, counter ratelimit.Counter, logger zerolog.Logger) *Classifier {
	if len(opts.BotPatterns) == 0 {
		opts.BotPatterns = defaultBotPatterns
	}
	if len(opts.BlockedASNs) == 0 {
		opts.BlockedASNs = defaultBlockedASNs
	}
	if len(opts.BlockedGeos) == 0 {
		opts.BlockedGeos = defaultBlockedGeos
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 30
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	if len(opts.CountryHeaders) == 0 {
		opts.CountryHeaders = []string{"CF-IPCountry", "X-Country-Code"}
	}
	if opts.ASNHeader == "" {
		opts.ASNHeader = "X-ASN"
	}
	return &Classifier{
		opts:    opts,
		counter: counter,
		logger:  logger.With().Str("component", "edge_classifier").Logger(),
	}
}

// Classify evaluates the guard chain for one request.
func (c *Classifier) Classify(r *http.Request) Classification {
	ua := r.UserAgent()

	// Bots get a 404, not a 403: the real content should not acknowledge
	// its existence to a scanner.
	if IsBot(ua, c.opts.BotPatterns, c.opts.BotAllowlist) {
		return reject(ReasonBot, http.StatusNotFound, nil)
	}

	if asn := strings.TrimSpace(r.Header.Get(c.opts.ASNHeader)); asn != "" {
		for _, blocked := range c.opts.BlockedASNs {
			if asn == blocked {
				return reject(ReasonBlockedASN, http.StatusForbidden, nil)
			}
		}
	}

	country := c.country(r)
	if country == "" {
		return reject(ReasonNoGeo, http.StatusUnavailableForLegalReasons, nil)
	}
	for _, blocked := range c.opts.BlockedGeos {
		if country == blocked {
			return reject(ReasonBlockedGeo, http.StatusUnavailableForLegalReasons, nil)
		}
	}

	if c.counter != nil {
		fp := Fingerprint(r)
		count, err := c.counter.Incr(r.Context(), fp, c.opts.RateWindow)
		if err != nil {
			// A broken counter store fails open: rejecting every visitor
			// because Redis is down is worse than briefly not limiting.
			c.logger.Warn().Err(err).Msg("rate counter unavailable; allowing request")
		} else if count > int64(c.opts.RatePerMinute) {
			return reject(ReasonRateLimited, http.StatusTooManyRequests, map[string]string{
				"Retry-After": strconv.Itoa(int(c.opts.RateWindow / time.Second)),
			})
		}
	}

	return Classification{
		Allow:   true,
		Headers: securityHeaders(),
	}
}

func (c *Classifier) country(r *http.Request) string {
	for _, h := range c.opts.CountryHeaders {
		if v := strings.ToUpper(strings.TrimSpace(r.Header.Get(h))); v != "" && v != "XX" {
			return v
		}
	}
	return ""
}

func reject(reason string, status int, headers map[string]string) Classification {
	return Classification{Reason: reason, Status: status, Headers: headers}
}

func securityHeaders() map[string]string {
	return map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
}
