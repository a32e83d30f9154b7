package edge

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// Fingerprint derives the per-visitor rate-limit identity from the client IP
// and user agent. It is used only as a counter key, never for offer
// personalization.
func Fingerprint(r *http.Request) string {
	sum := sha256.Sum256([]byte(ClientIP(r) + "|" + r.UserAgent()))
	return hex.EncodeToString(sum[:])[:16]
}

// ClientIP resolves the originating address, trusting proxy headers in the
// usual precedence order.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
