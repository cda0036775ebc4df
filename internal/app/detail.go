package app

import (
	"fmt"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// Detail returns the opportunity at 1-based index n from the last scan's
// scratch file, matching the operator CLI's "detail N" numbering.
func (a *App) Detail(n int) (*types.Opportunity, error) {
	opportunities, err := ReadLastOpportunities(a.cfg.LastOpportunitiesPath)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(opportunities) {
		return nil, fmt.Errorf("opportunity %d out of range (1-%d)", n, len(opportunities))
	}
	return &opportunities[n-1], nil
}
