package clicklog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured indicates the click store pool was not initialised.
var ErrNotConfigured = errors.New("clicklog: pool not configured")

const (
	insertClickSQL = `INSERT INTO click_events (
        clicked_at,
        offer_id,
        network,
        dest,
        fingerprint,
        country,
        user_agent,
        referer
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    );`

	listRecentClicksSQL = `SELECT
        id,
        clicked_at,
        offer_id,
        network,
        dest,
        fingerprint,
        country,
        user_agent,
        referer
    FROM click_events
    ORDER BY clicked_at DESC
    LIMIT $1;`

	countClicksByBucketSQL = `SELECT
        date_trunc('hour', clicked_at) AS bucket,
        COUNT(*)
    FROM click_events
    WHERE clicked_at >= $1
      AND clicked_at < $2
    GROUP BY bucket
    ORDER BY bucket;`
)

// ClickStore is the dispatcher-facing write interface.
type ClickStore interface {
	InsertClick(ctx context.Context, event ClickEvent) error
}

// Store provides persistence for click events over pgx.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertClick persists one redirect event.
func (s *Store) InsertClick(ctx context.Context, event ClickEvent) error {
	if s.pool == nil {
		return ErrNotConfigured
	}

	_, err := s.pool.Exec(ctx, insertClickSQL,
		event.Time,
		event.OfferID,
		event.Network,
		event.Dest,
		event.Fingerprint,
		event.Country,
		event.UserAgent,
		event.Referer,
	)
	if err != nil {
		return fmt.Errorf("insert click event: %w", err)
	}
	return nil
}

// ListRecent returns the newest events first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]ClickEvent, error) {
	if s.pool == nil {
		return nil, ErrNotConfigured
	}

	rows, err := s.pool.Query(ctx, listRecentClicksSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list click events: %w", err)
	}
	defer rows.Close()

	var events []ClickEvent
	for rows.Next() {
		var e ClickEvent
		if err := rows.Scan(&e.ID, &e.Time, &e.OfferID, &e.Network, &e.Dest, &e.Fingerprint, &e.Country, &e.UserAgent, &e.Referer); err != nil {
			return nil, fmt.Errorf("scan click event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByBucket aggregates hourly click counts inside [from, to).
func (s *Store) CountByBucket(ctx context.Context, from, to time.Time) ([]BucketCount, error) {
	if s.pool == nil {
		return nil, ErrNotConfigured
	}

	rows, err := s.pool.Query(ctx, countClicksByBucketSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("count click buckets: %w", err)
	}
	defer rows.Close()

	var counts []BucketCount
	for rows.Next() {
		var c BucketCount
		if err := rows.Scan(&c.Bucket, &c.Count); err != nil {
			return nil, fmt.Errorf("scan click bucket: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

var _ ClickStore = (*Store)(nil)
