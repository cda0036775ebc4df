package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// ShowAlerts returns the last n alerts recorded in the alert JSONL log,
// oldest first. storage.Store has no alert read-back method (SaveAlert is
// write-only, matching the append-only table it persists), so this tails
// the same JSONL file Scan appends on every cycle.
func (a *App) ShowAlerts(n int) ([]types.Alert, error) {
	f, err := os.Open(a.cfg.AlertLogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", a.cfg.AlertLogPath, err)
	}
	defer f.Close()

	var all []types.Alert
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var alert types.Alert
		if uerr := json.Unmarshal(scanner.Bytes(), &alert); uerr != nil {
			continue
		}
		all = append(all, alert)
	}
	if serr := scanner.Err(); serr != nil {
		return nil, fmt.Errorf("read %s: %w", a.cfg.AlertLogPath, serr)
	}

	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}
