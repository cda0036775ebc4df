package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore opens the connection, pings it, and applies the schema
// migration (idempotent CREATE TABLE IF NOT EXISTS statements).
func NewPostgresStore(ctx context.Context, cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{db: db, logger: cfg.Logger}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	cfg.Logger.Info("postgres-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return store, nil
}

// migrate applies every table the schema needs. Statements are
// idempotent so this runs safely on every startup.
func (p *PostgresStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			idempotency_key TEXT UNIQUE NOT NULL,
			exchange_order_id TEXT,
			ticker TEXT NOT NULL,
			side TEXT NOT NULL,
			type TEXT NOT NULL,
			price INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			strategy TEXT NOT NULL,
			signal_confidence DOUBLE PRECISION,
			expected_value DOUBLE PRECISION,
			status TEXT NOT NULL,
			filled_quantity INTEGER NOT NULL DEFAULT 0,
			average_fill_price DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL,
			submitted_at TIMESTAMPTZ,
			filled_at TIMESTAMPTZ,
			error_message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			exchange_trade_id TEXT,
			ticker TEXT NOT NULL,
			side TEXT NOT NULL,
			price INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			notional NUMERIC NOT NULL,
			fees NUMERIC NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id BIGSERIAL PRIMARY KEY,
			ticker TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			last_price INTEGER,
			bid DOUBLE PRECISION,
			ask DOUBLE PRECISION,
			mid DOUBLE PRECISION,
			spread DOUBLE PRECISION,
			volume_24h DOUBLE PRECISION,
			bid_depth INTEGER,
			ask_depth INTEGER,
			depth_imbalance DOUBLE PRECISION,
			orderbook_json JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ticker ON snapshots(ticker)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts)`,
		`CREATE TABLE IF NOT EXISTS daily_pnl (
			date TEXT PRIMARY KEY,
			realized NUMERIC NOT NULL,
			unrealized NUMERIC NOT NULL,
			fees NUMERIC NOT NULL,
			placed INTEGER NOT NULL,
			filled INTEGER NOT NULL,
			won INTEGER NOT NULL,
			lost INTEGER NOT NULL,
			peak_exposure NUMERIC NOT NULL,
			ending_exposure NUMERIC NOT NULL,
			markets_traded TEXT[]
		)`,
		`CREATE TABLE IF NOT EXISTS contracts (
			ticker TEXT PRIMARY KEY,
			event TEXT,
			title TEXT,
			outcome_side TEXT,
			close_time TIMESTAMPTZ,
			status TEXT,
			last_price INTEGER,
			fetched_at TIMESTAMPTZ,
			raw_json JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS quotes (
			id BIGSERIAL PRIMARY KEY,
			source TEXT,
			bookmaker TEXT,
			event TEXT,
			market_type TEXT,
			selection TEXT,
			odds_format TEXT,
			odds_value DOUBLE PRECISION,
			ts TIMESTAMPTZ,
			raw_json JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			alert_id TEXT PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			market_key TEXT NOT NULL,
			direction TEXT NOT NULL,
			edge_pct DOUBLE PRECISION,
			edge_bps DOUBLE PRECISION,
			confidence TEXT,
			confidence_score DOUBLE PRECISION,
			contract_id TEXT,
			bookmaker TEXT,
			raw_json JSONB
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}
