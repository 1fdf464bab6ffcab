package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/deribit-marks/internal/model"
)

// BatchSender sends a batch of queued statements. Satisfied by *pgxpool.Pool.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresStats counts writer activity.
type PostgresStats struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
}

// PostgresWriter inserts marks and best matches. Rows are keyed by the run id
// so re-sending a cycle is a no-op.
type PostgresWriter struct {
	db     BatchSender
	runID  uuid.UUID
	logger *slog.Logger

	inserts   atomic.Int64
	conflicts atomic.Int64
	errors    atomic.Int64
}

// NewPostgresWriter creates a writer with a fresh run id.
func NewPostgresWriter(db BatchSender, logger *slog.Logger) *PostgresWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresWriter{
		db:     db,
		runID:  uuid.New(),
		logger: logger,
	}
}

// RunID returns the id attached to every row this writer inserts.
func (w *PostgresWriter) RunID() uuid.UUID {
	return w.runID
}

// Stats returns current counters.
func (w *PostgresWriter) Stats() PostgresStats {
	return PostgresStats{
		Inserts:   w.inserts.Load(),
		Conflicts: w.conflicts.Load(),
		Errors:    w.errors.Load(),
	}
}

// markRow is one mark_snapshots row.
type markRow struct {
	CycleTS      int64
	Strike       string
	OptionType   string
	Instrument   *string
	IsStandard   *bool
	ComputedMark *float64
	DeribitMark  *float64
	Error        *string
	Testnet      bool
}

// snapshotRows flattens a snapshot into rows ordered by strike then side.
func snapshotRows(snap model.MarkSnapshot) []markRow {
	var rows []markRow
	for _, strike := range sortedStrikes(snap) {
		sm := snap.Marks[strike]
		for _, side := range sides {
			e, ok := sm[side]
			if !ok {
				continue
			}
			row := markRow{
				CycleTS:      snap.Timestamp,
				Strike:       strike,
				OptionType:   string(side),
				IsStandard:   e.IsStandard,
				ComputedMark: e.ComputedMark,
				DeribitMark:  e.DeribitMark,
				Testnet:      e.Testnet,
			}
			if name := entryInstrument(e); name != "" {
				row.Instrument = &name
			}
			if e.Error != "" {
				msg := e.Error
				row.Error = &msg
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteSnapshot inserts every entry of the snapshot.
func (w *PostgresWriter) WriteSnapshot(ctx context.Context, snap model.MarkSnapshot) error {
	rows := snapshotRows(snap)
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO mark_snapshots (
				run_id, cycle_ts, strike, option_type, instrument, is_standard,
				computed_mark, deribit_mark, error, testnet
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (run_id, cycle_ts, strike, option_type) DO NOTHING`,
			w.runID, r.CycleTS, r.Strike, r.OptionType, r.Instrument, r.IsStandard,
			r.ComputedMark, r.DeribitMark, r.Error, r.Testnet,
		)
	}

	conflicts, err := w.sendBatch(ctx, batch, len(rows))
	if err != nil {
		return fmt.Errorf("insert mark snapshot %d: %w", snap.Timestamp, err)
	}
	if conflicts > 0 {
		w.logger.Debug("skipped duplicate mark rows", "cycle_ts", snap.Timestamp, "conflicts", conflicts)
	}
	return nil
}

// WriteBestMatch inserts one best match.
func (w *PostgresWriter) WriteBestMatch(ctx context.Context, m model.BestMatch) error {
	prices, err := json.Marshal(m.Prices)
	if err != nil {
		return fmt.Errorf("marshal prices: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO best_matches (run_id, label, metric, ts, date, price_usd, score, prices)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, label) DO NOTHING`,
		w.runID, m.Label, m.Metric, m.Timestamp, m.Date, m.PriceUSD, m.Score, string(prices),
	)

	if _, err := w.sendBatch(ctx, batch, 1); err != nil {
		return fmt.Errorf("insert best match %s: %w", m.Label, err)
	}
	return nil
}

// sendBatch executes n queued statements and returns how many hit a conflict.
func (w *PostgresWriter) sendBatch(ctx context.Context, batch *pgx.Batch, n int) (int, error) {
	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	conflicts := 0
	for i := 0; i < n; i++ {
		ct, err := results.Exec()
		if err != nil {
			w.errors.Add(1)
			return conflicts, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
			w.conflicts.Add(1)
		} else {
			w.inserts.Add(1)
		}
	}
	return conflicts, nil
}
