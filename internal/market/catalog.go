package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/deribit-marks/internal/model"
)

// ErrNoInstruments is returned when no instrument matches the expiry filter.
var ErrNoInstruments = errors.New("no instruments for expiry")

// InstrumentLister lists instruments from the exchange.
type InstrumentLister interface {
	GetInstruments(ctx context.Context, currency, kind string, expired bool) ([]model.Instrument, error)
}

// Config holds catalog configuration.
type Config struct {
	Currency string // e.g. "BTC"
	Kind     string // e.g. "option"
	Expiry   string // Substring of the instrument name, e.g. "27JUN25"
}

// Catalog is the set of live instruments for one expiry.
type Catalog struct {
	cfg         Config
	instruments []model.Instrument
	byName      map[string]model.Instrument
}

// NewCatalog builds a catalog from already-loaded instruments, keeping those
// whose name contains the expiry filter.
func NewCatalog(cfg Config, all []model.Instrument) *Catalog {
	c := &Catalog{
		cfg:    cfg,
		byName: make(map[string]model.Instrument),
	}
	for _, inst := range all {
		if !strings.Contains(inst.Name, cfg.Expiry) {
			continue
		}
		c.instruments = append(c.instruments, inst)
		c.byName[inst.Name] = inst
	}
	return c
}

// Load fetches unexpired instruments and builds the catalog.
func Load(ctx context.Context, cfg Config, lister InstrumentLister, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()

	all, err := lister.GetInstruments(ctx, cfg.Currency, cfg.Kind, false)
	if err != nil {
		return nil, fmt.Errorf("load instruments: %w", err)
	}

	c := NewCatalog(cfg, all)
	if len(c.instruments) == 0 {
		return nil, fmt.Errorf("%w %q (%d %s %s instruments listed)", ErrNoInstruments, cfg.Expiry, len(all), cfg.Currency, cfg.Kind)
	}

	logger.Info("instruments loaded",
		"expiry", cfg.Expiry,
		"count", len(c.instruments),
		"listed", len(all),
		"duration", time.Since(start),
	)

	return c, nil
}

// Instruments returns the catalog's instruments in exchange order.
func (c *Catalog) Instruments() []model.Instrument {
	return c.instruments
}

// Lookup returns an instrument by name.
func (c *Catalog) Lookup(name string) (model.Instrument, bool) {
	inst, ok := c.byName[name]
	return inst, ok
}

// Match returns the closest call and put for strike. See Match.
func (c *Catalog) Match(strike float64) (call, put string) {
	return Match(c.instruments, strike)
}
