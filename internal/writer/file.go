package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/rickgao/deribit-marks/internal/model"
	"github.com/rickgao/deribit-marks/internal/reconcile"
)

// FileConfig holds output directories.
type FileConfig struct {
	MarksDir string // prices_<unix>.json
	DataDir  string // best_match_*.json, merged_prices_*.json.zst
}

// FileWriter writes JSON files. Directories are created on first use.
type FileWriter struct {
	cfg FileConfig
}

// NewFileWriter creates a new FileWriter.
func NewFileWriter(cfg FileConfig) *FileWriter {
	return &FileWriter{cfg: cfg}
}

// SnapshotPath returns the file a snapshot is written to.
func (w *FileWriter) SnapshotPath(snap model.MarkSnapshot) string {
	return filepath.Join(w.cfg.MarksDir, fmt.Sprintf("prices_%d.json", snap.Timestamp))
}

// BestMatchPath returns the file a best match is written to.
func (w *FileWriter) BestMatchPath(metric, label string) string {
	return filepath.Join(w.cfg.DataDir, fmt.Sprintf("best_match_%s_%s.json", metric, label))
}

// TablePath returns the file a merged table is dumped to.
func (w *FileWriter) TablePath(metric, label string) string {
	return filepath.Join(w.cfg.DataDir, fmt.Sprintf("merged_prices_%s_%s.json.zst", metric, label))
}

// WriteSnapshot writes the snapshot's marks keyed by strike.
func (w *FileWriter) WriteSnapshot(ctx context.Context, snap model.MarkSnapshot) error {
	return writeJSON(w.SnapshotPath(snap), snap.Marks)
}

// WriteBestMatch writes one best match.
func (w *FileWriter) WriteBestMatch(ctx context.Context, m model.BestMatch) error {
	return writeJSON(w.BestMatchPath(m.Metric, m.Label), m)
}

// tableRow is one row of a dumped table.
type tableRow struct {
	Timestamp int64               `json:"timestamp"`
	Date      string              `json:"date"`
	Prices    map[string]*float64 `json:"prices"` // null where missing
}

// WriteTable dumps a merged table as zstd-compressed JSON.
func (w *FileWriter) WriteTable(ctx context.Context, metric reconcile.Metric, label string, t *reconcile.Table) error {
	rows := make([]tableRow, len(t.Timestamps))
	for i, ts := range t.Timestamps {
		prices := make(map[string]*float64, len(t.Assets))
		for j, asset := range t.Assets {
			if v := t.Prices[i][j]; v != 0 {
				prices[asset] = &v
			} else {
				prices[asset] = nil
			}
		}
		rows[i] = tableRow{Timestamp: ts, Date: t.Dates[i], Prices: prices}
	}

	path := w.TablePath(string(metric), label)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(rows); err != nil {
		enc.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
