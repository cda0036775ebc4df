// Package notify delivers operator-facing notifications: a best-effort
// Slack webhook post and an append-only JSONL record of every alert and
// trading-run summary, using a direct net/http client rather than pulling
// in a dedicated Slack SDK.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Level tags an alert's severity for the webhook's emoji prefix.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

var emoji = map[Level]string{
	LevelInfo:    "ℹ️",
	LevelWarning: "⚠️",
	LevelError:   "🚨",
	LevelSuccess: "✅",
}

// Notifier posts run and trade notifications to a Slack-compatible webhook.
// It writes no local file; the JSONL alert log is written by AppendJSONL.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config configures a Notifier.
type Config struct {
	WebhookURL string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// New constructs a Notifier. An empty WebhookURL disables webhook delivery
// without being an error — Send then returns false, logged at debug.
func New(cfg Config) *Notifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

type slackPayload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// Send posts message at level to the configured webhook. It reports
// whether delivery succeeded; a missing webhook or a non-200 response is
// logged, never returned as an error — a failed notification must never
// abort a trading cycle.
func (n *Notifier) Send(title, message string, level Level) bool {
	if n.webhookURL == "" {
		n.logger.Debug("alert-skipped", zap.String("reason", "no webhook configured"))
		return false
	}

	payload := slackPayload{
		Text:     fmt.Sprintf("%s *%s*\n%s", emoji[level], title, message),
		Username: "kalshi-odds-scanner",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("alert-marshal-failed", zap.Error(err))
		return false
	}

	resp, err := n.httpClient.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		n.logger.Error("alert-send-failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Error("alert-rejected", zap.Int("status", resp.StatusCode))
		return false
	}
	n.logger.Info("alert-sent", zap.String("title", title), zap.String("level", string(level)))
	return true
}

// SendRunSummary posts the one-line trading-run completion alert.
func (n *Notifier) SendRunSummary(placed, filled int) bool {
	return n.Send("Trading Run Complete",
		fmt.Sprintf("%d/%d orders filled", filled, placed), LevelInfo)
}

// SendRunError posts a trading-run failure alert.
func (n *Notifier) SendRunError(err error) bool {
	return n.Send("Trading Run Error", err.Error(), LevelError)
}

// AppendJSONL appends one JSON-encoded line for record to path, creating
// the file if needed. Used for both alerts and run summaries so operators
// can grep a flat history without a database.
func AppendJSONL(path string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
