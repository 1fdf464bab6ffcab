package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer runs a statement. Satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the output tables if they do not exist.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS mark_snapshots (
		run_id        UUID             NOT NULL,
		cycle_ts      BIGINT           NOT NULL,
		strike        TEXT             NOT NULL,
		option_type   TEXT             NOT NULL,
		instrument    TEXT,
		is_standard   BOOLEAN,
		computed_mark DOUBLE PRECISION,
		deribit_mark  DOUBLE PRECISION,
		error         TEXT,
		testnet       BOOLEAN          NOT NULL,
		PRIMARY KEY (run_id, cycle_ts, strike, option_type)
	)`,
	`CREATE TABLE IF NOT EXISTS best_matches (
		run_id    UUID             NOT NULL,
		label     TEXT             NOT NULL,
		metric    TEXT             NOT NULL,
		ts        BIGINT           NOT NULL,
		date      TEXT             NOT NULL,
		price_usd DOUBLE PRECISION NOT NULL,
		score     DOUBLE PRECISION NOT NULL,
		prices    JSONB            NOT NULL,
		PRIMARY KEY (run_id, label)
	)`,
}

// EnsureSchema applies Schema in order.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range Schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
