package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"offergate/internal/clicklog"
	"offergate/internal/edge"
)

// handleRedirect is the cloaked redirect dispatcher for GET /sv. It
// validates the destination, applies UTM defaults without overriding
// caller-supplied ones, appends compliance flags, issues the 302, and
// schedules a non-blocking click log write.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dest := q.Get("dest")
	if dest == "" {
		http.Error(w, "missing dest parameter", http.StatusBadRequest)
		return
	}

	target, err := url.Parse(dest)
	if err != nil || target.Host == "" {
		http.Error(w, "invalid dest parameter", http.StatusBadRequest)
		return
	}

	outQ := target.Query()

	// Default-fill, never override: a caller that set its own utm_source
	// keeps its entire UTM set.
	if outQ.Get("utm_source") == "" {
		copyParam(outQ, q, "utm_source")
		copyParam(outQ, q, "utm_medium")
		copyParam(outQ, q, "utm_campaign")
	}
	if tid := q.Get("tid"); tid != "" {
		outQ.Set("tid", tid)
	}

	outQ.Set("disclosure", "1")
	if s.opts.TermsURL != "" {
		outQ.Set("terms", s.opts.TermsURL)
	}
	target.RawQuery = outQ.Encode()

	s.scheduleClickLog(r, q)
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// scheduleClickLog fires the analytics write in the background. The redirect
// never waits on it and failures are swallowed: losing an event is
// acceptable, delaying a visitor is not.
func (s *Server) scheduleClickLog(r *http.Request, q url.Values) {
	if s.opts.Clicks == nil {
		return
	}

	event := clicklog.ClickEvent{
		Time:        time.Now().UTC(),
		OfferID:     q.Get("oid"),
		Network:     q.Get("net"),
		Dest:        q.Get("dest"),
		Fingerprint: edge.Fingerprint(r),
		Country:     r.Header.Get("CF-IPCountry"),
		UserAgent:   r.UserAgent(),
		Referer:     r.Referer(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.opts.Clicks.InsertClick(ctx, event); err != nil {
			s.logger.Debug().Err(err).Str("offer_id", event.OfferID).Msg("click log write failed")
		}
	}()
}

func copyParam(dst, src url.Values, key string) {
	if v := src.Get(key); v != "" && dst.Get(key) == "" {
		dst.Set(key, v)
	}
}
