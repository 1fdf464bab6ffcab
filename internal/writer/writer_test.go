package writer

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rickgao/deribit-marks/internal/config"
	"github.com/rickgao/deribit-marks/internal/model"
)

type recordingSink struct {
	snapshots []int64
	matches   []string
	err       error
}

func (s *recordingSink) WriteSnapshot(ctx context.Context, snap model.MarkSnapshot) error {
	s.snapshots = append(s.snapshots, snap.Timestamp)
	return s.err
}

func (s *recordingSink) WriteBestMatch(ctx context.Context, m model.BestMatch) error {
	s.matches = append(s.matches, m.Label)
	return s.err
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := Multi{a, b}

	if err := m.HandleSnapshot(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("HandleSnapshot failed: %v", err)
	}
	if err := m.WriteBestMatch(context.Background(), testBestMatch()); err != nil {
		t.Fatalf("WriteBestMatch failed: %v", err)
	}

	for i, s := range []*recordingSink{a, b} {
		if len(s.snapshots) != 1 || s.snapshots[0] != 1718000000 {
			t.Errorf("sink %d snapshots = %v, want [1718000000]", i, s.snapshots)
		}
		if len(s.matches) != 1 || s.matches[0] != "mainnet" {
			t.Errorf("sink %d matches = %v, want [mainnet]", i, s.matches)
		}
	}
}

func TestMulti_JoinsErrors(t *testing.T) {
	errA := errors.New("disk full")
	errB := errors.New("connection refused")
	ok := &recordingSink{}
	m := Multi{&recordingSink{err: errA}, ok, &recordingSink{err: errB}}

	err := m.WriteSnapshot(context.Background(), testSnapshot())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err = %v, want both sink errors", err)
	}
	if len(ok.snapshots) != 1 {
		t.Errorf("healthy sink got %d snapshots, want 1", len(ok.snapshots))
	}
}

func TestMulti_Empty(t *testing.T) {
	if err := (Multi{}).WriteBestMatch(context.Background(), testBestMatch()); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

func TestSortedStrikes(t *testing.T) {
	got := sortedStrikes(testSnapshot())
	want := []string{"64000.5", "65000"}
	if !slices.Equal(got, want) {
		t.Errorf("sortedStrikes = %v, want %v", got, want)
	}
}

func TestEntryInstrument(t *testing.T) {
	closest := "ETH-27JUN25-3000-C"
	tests := []struct {
		name  string
		entry model.MarkEntry
		want  string
	}{
		{"standard", model.MarkEntry{Instrument: "ETH-27JUN25-3200-C"}, "ETH-27JUN25-3200-C"},
		{"closest", model.MarkEntry{ClosestInstrument: &closest}, closest},
		{"unmatched", model.MarkEntry{Unmatched: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryInstrument(tt.entry); got != tt.want {
				t.Errorf("entryInstrument = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_FileOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Marks.OutputDir = t.TempDir()
	cfg.Settlement.OutputDir = t.TempDir()

	o, err := Open(context.Background(), &cfg, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer o.Close()

	if len(o.Sinks) != 1 {
		t.Fatalf("Sinks = %d, want 1", len(o.Sinks))
	}
	if o.Sinks[0] != Sink(o.File) {
		t.Error("only sink is not the file writer")
	}
}
