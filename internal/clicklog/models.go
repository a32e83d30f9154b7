package clicklog

import "time"

// ClickEvent records one served redirect. Events are written asynchronously
// after the 302 has been issued; a lost event never affects the visitor.
type ClickEvent struct {
	ID          int64
	Time        time.Time
	OfferID     string
	Network     string
	Dest        string
	Fingerprint string
	Country     string
	UserAgent   string
	Referer     string
}

// BucketCount aggregates click volume per time bucket for exports.
type BucketCount struct {
	Bucket time.Time
	Count  int64
}
