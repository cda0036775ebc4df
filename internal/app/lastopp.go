package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// writeLastOpportunities atomically rewrites cfg.LastOpportunitiesPath: the
// new content is written to a temp file in the same directory, then
// renamed into place, so a concurrent detail/execute read never observes a
// half-written file. Mirrors matcher.WriteMappings' temp-then-rename
// pattern for the same reason.
func (a *App) writeLastOpportunities(opportunities []types.Opportunity) error {
	path := a.cfg.LastOpportunitiesPath
	if path == "" {
		return nil
	}

	data, err := json.MarshalIndent(opportunities, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal opportunities: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".last_opportunities-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, werr := tmp.Write(data); werr != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", werr)
	}
	if cerr := tmp.Close(); cerr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", cerr)
	}

	if rerr := os.Rename(tmpPath, path); rerr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", rerr)
	}
	return nil
}

// ReadLastOpportunities reads cfg.LastOpportunitiesPath back into memory,
// for commands run in a separate process from the scan that produced it
// (detail, execute, show all run as their own CLI invocation).
func ReadLastOpportunities(path string) ([]types.Opportunity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var opportunities []types.Opportunity
	if uerr := json.Unmarshal(data, &opportunities); uerr != nil {
		return nil, fmt.Errorf("parse %s: %w", path, uerr)
	}
	return opportunities, nil
}
