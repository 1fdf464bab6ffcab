package writer

import (
	"context"
	"errors"
	"slices"

	"github.com/rickgao/deribit-marks/internal/model"
)

// Sink persists mark snapshots and best matches.
type Sink interface {
	WriteSnapshot(ctx context.Context, snap model.MarkSnapshot) error
	WriteBestMatch(ctx context.Context, m model.BestMatch) error
}

// Multi writes to every sink and joins their errors. One failing sink does
// not stop the others.
type Multi []Sink

// WriteSnapshot implements Sink.
func (m Multi) WriteSnapshot(ctx context.Context, snap model.MarkSnapshot) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.WriteSnapshot(ctx, snap))
	}
	return errors.Join(errs...)
}

// WriteBestMatch implements Sink.
func (m Multi) WriteBestMatch(ctx context.Context, bm model.BestMatch) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.WriteBestMatch(ctx, bm))
	}
	return errors.Join(errs...)
}

// HandleSnapshot lets Multi receive snapshots from the poller.
func (m Multi) HandleSnapshot(ctx context.Context, snap model.MarkSnapshot) error {
	return m.WriteSnapshot(ctx, snap)
}

// envLabel names the environment a snapshot came from.
func envLabel(testnet bool) string {
	if testnet {
		return "testnet"
	}
	return "mainnet"
}

// entryInstrument is the instrument an entry was priced from, if any.
func entryInstrument(e model.MarkEntry) string {
	if e.Instrument != "" {
		return e.Instrument
	}
	if e.ClosestInstrument != nil {
		return *e.ClosestInstrument
	}
	return ""
}

// sortedStrikes returns snapshot keys in a stable order.
func sortedStrikes(snap model.MarkSnapshot) []string {
	var keys []string
	for k := range snap.Marks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var sides = []model.OptionType{model.Call, model.Put}
