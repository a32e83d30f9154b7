package feed

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Column names recognised in the import file header.
const (
	colOfferID    = "OfferID"
	colOfferName  = "OfferName"
	colPayout     = "Payout"
	colCountries  = "Countries"
	colPreviewURL = "PreviewUrl"
)

// CSVSource reads a local comma-delimited export. The first line is a header
// defining column order; data lines are split positionally. There is no
// quoted-field handling: an offer name containing a comma shifts every
// following column. Known limitation carried over from the upstream export
// format, which never quotes fields.
type CSVSource struct {
	name   string
	path   string
	logger zerolog.Logger
}

// NewCSVSource constructs a CSV import adapter.
func NewCSVSource(name, path string, logger zerolog.Logger) *CSVSource {
	return &CSVSource{
		name:   name,
		path:   path,
		logger: logger.With().Str("component", "csv_source").Logger(),
	}
}

// Name identifies the source in merge ordering and offer ids.
func (s *CSVSource) Name() string { return s.name }

// Fetch parses the import file. Rows with fewer columns than the header are
// skipped rather than failing the whole file.
func (s *CSVSource) Fetch(ctx context.Context) ([]RawOffer, error) {
	if s.path == "" {
		return nil, fmt.Errorf("csv source %s: path not configured", s.name)
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv import: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read csv header: %w", err)
		}
		return nil, fmt.Errorf("csv import %s is empty", s.path)
	}

	columns := map[string]int{}
	for i, name := range strings.Split(scanner.Text(), ",") {
		columns[strings.TrimSpace(name)] = i
	}

	var records []RawOffer
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Split(scanner.Text(), ",")
		record, ok := s.parseRow(fields, columns)
		if !ok {
			s.logger.Debug().Int("line", line).Msg("skipping malformed csv row")
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	return records, nil
}

func (s *CSVSource) parseRow(fields []string, columns map[string]int) (RawOffer, bool) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[idx])
	}

	id := cell(colOfferID)
	url := cell(colPreviewURL)
	if id == "" || url == "" {
		return RawOffer{}, false
	}

	payout, err := decimal.NewFromString(cell(colPayout))
	if err != nil || payout.IsNegative() {
		payout = decimal.Zero
	}

	var geo []string
	for _, c := range strings.Split(cell(colCountries), ";") {
		if c = strings.TrimSpace(c); c != "" {
			geo = append(geo, c)
		}
	}

	return RawOffer{
		NativeID: id,
		Name:     cell(colOfferName),
		Payout:   payout,
		Geo:      geo,
		EntryURL: url,
	}, true
}

var _ Source = (*CSVSource)(nil)
