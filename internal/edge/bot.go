package edge

import "strings"

// Crawler and tooling signatures matched as case-insensitive substrings.
// Kept as data so tests can substitute fixtures.
var defaultBotPatterns = []string{
	"googlebot",
	"bingbot",
	"yandexbot",
	"duckduckbot",
	"baiduspider",
	"slurp",
	"facebookexternalhit",
	"twitterbot",
	"linkedinbot",
	"telegrambot",
	"whatsapp",
	"discordbot",
	"applebot",
	"semrushbot",
	"ahrefsbot",
	"mj12bot",
	"petalbot",
	"curl",
	"wget",
	"python-requests",
	"go-http-client",
	"httpclient",
	"okhttp",
	"headlesschrome",
	"phantomjs",
	"selenium",
	"crawler",
	"spider",
	"scrapy",
}

// Datacenter ASNs that front scrapers rather than residential traffic.
var defaultBlockedASNs = []string{
	"AS15169", // Google Cloud
	"AS16509", // AWS
	"AS14618", // AWS
	"AS8075",  // Azure
	"AS14061", // DigitalOcean
	"AS16276", // OVH
	"AS24940", // Hetzner
	"AS63949", // Linode
	"AS20473", // Vultr
}

// Sanctioned or unserviceable regions.
var defaultBlockedGeos = []string{"CU", "IR", "KP", "SY", "RU", "BY"}

// IsBot reports whether the user agent matches a known bot signature. An
// empty user agent counts as a bot; allowlist entries override a pattern
// match so monitoring probes can be let through deliberately.
func IsBot(userAgent string, patterns, allowlist []string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}
	for _, allowed := range allowlist {
		if allowed != "" && strings.Contains(ua, strings.ToLower(allowed)) {
			return false
		}
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(ua, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
