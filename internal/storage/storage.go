package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"alpha_sim/internal/sim"

	"github.com/rs/zerolog/log"
)

// ReportVersion is bumped whenever the on-disk layout changes.
const ReportVersion = "1.0"

// Report is the end-of-run export. It is written once on shutdown and is
// never read back into a running portfolio.
type Report struct {
	Version string      `json:"version"`
	SavedAt time.Time   `json:"saved_at"`
	Summary sim.Summary `json:"summary"`
}

// LoadSummary reads a report written by SaveSummary.
func LoadSummary(path string) (Report, error) {
	var r Report

	b, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decode %s: %w", path, err)
	}
	if r.Version != ReportVersion {
		log.Warn().Str("path", path).Str("version", r.Version).Msg("Report version mismatch")
	}
	return r, nil
}

// SaveSummary writes the summary to path using an atomic write pattern.
// 1. Write to a temporary file.
// 2. Sync to ensure data is on disk.
// 3. Rename temporary file to destination.
func SaveSummary(path string, s sim.Summary) error {
	r := Report{Version: ReportVersion, SavedAt: time.Now().UTC(), Summary: s}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	// Same directory so the rename stays on one filesystem
	tmpFile := path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	// Close explicitly before renaming (essential on Windows)
	f.Close()

	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("trades", s.NumTrades).Msg("Summary saved")
	return nil
}
