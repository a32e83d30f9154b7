package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"offergate/internal/offer"
)

// Manifest persistence. The JSON file at the configured path is the sole
// contract between the aggregation pipeline and the serving layer: the
// pipeline rebuilds it from scratch on every run, the server reads it and
// keeps serving the last good copy until a newer run succeeds.

// Load reads a manifest file. A missing file or a parse error degrades to an
// empty manifest so the caller can keep going with prior state or nothing.
func Load(path string, logger zerolog.Logger) []offer.Offer {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("manifest read failed; using empty manifest")
		}
		return nil
	}

	var offers []offer.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("manifest parse failed; using empty manifest")
		return nil
	}
	return offers
}

// Write persists a manifest atomically: the JSON is staged in a temp file in
// the target directory and renamed into place, so a failed run never leaves a
// truncated manifest behind for the serving layer.
func Write(path string, offers []offer.Offer) error {
	if path == "" {
		return fmt.Errorf("manifest path not configured")
	}

	data, err := json.MarshalIndent(offers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("stage manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("flush manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("publish manifest: %w", err)
	}
	return nil
}
