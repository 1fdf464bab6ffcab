package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/deribit-marks/internal/model"
)

// RedisWriter keeps a sorted set of marks per instrument and the latest best
// match per label.
type RedisWriter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisWriter creates a new RedisWriter.
func NewRedisWriter(client *redis.Client, logger *slog.Logger) *RedisWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisWriter{client: client, logger: logger}
}

// MarksKey is the sorted set holding marks for one instrument.
func MarksKey(testnet bool, instrument string) string {
	return fmt.Sprintf("marks:%s:%s", envLabel(testnet), instrument)
}

// BestMatchKey holds the latest best match for a metric and label.
func BestMatchKey(metric, label string) string {
	return fmt.Sprintf("best_match:%s:%s", metric, label)
}

// markMember is scored by cycle time; the timestamp prefix keeps equal marks
// from different cycles distinct.
func markMember(ts int64, mark float64) string {
	return strconv.FormatInt(ts, 10) + ":" + strconv.FormatFloat(mark, 'f', -1, 64)
}

// WriteSnapshot adds every priced entry to its instrument's sorted set.
// Entries without an instrument or a mark are skipped.
func (w *RedisWriter) WriteSnapshot(ctx context.Context, snap model.MarkSnapshot) error {
	pipe := w.client.Pipeline()
	queued := 0
	for _, strike := range sortedStrikes(snap) {
		for _, side := range sides {
			e, ok := snap.Marks[strike][side]
			if !ok || e.ComputedMark == nil {
				continue
			}
			name := entryInstrument(e)
			if name == "" {
				continue
			}
			pipe.ZAdd(ctx, MarksKey(e.Testnet, name), redis.Z{
				Score:  float64(snap.Timestamp),
				Member: markMember(snap.Timestamp, *e.ComputedMark),
			})
			queued++
		}
	}
	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write snapshot %d: %w", snap.Timestamp, err)
	}
	w.logger.Debug("wrote marks to redis", "cycle_ts", snap.Timestamp, "entries", queued)
	return nil
}

// WriteBestMatch stores the match as JSON, replacing any previous value.
func (w *RedisWriter) WriteBestMatch(ctx context.Context, m model.BestMatch) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal best match: %w", err)
	}
	if err := w.client.Set(ctx, BestMatchKey(m.Metric, m.Label), data, 0).Err(); err != nil {
		return fmt.Errorf("redis write best match %s: %w", m.Label, err)
	}
	return nil
}
