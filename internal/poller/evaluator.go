package poller

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/deribit-marks/internal/market"
	"github.com/rickgao/deribit-marks/internal/model"
	"github.com/rickgao/deribit-marks/internal/pricing"
)

// Entry error messages.
const (
	ErrMsgNoMatch   = "No matching Deribit instrument"
	ErrMsgNoData    = "No usable order book data"
	ErrMsgFetchPref = "Failed to fetch data: "
)

// markPlaces is the precision of published marks.
const markPlaces = 4

// InstrumentSource matches strikes to listed instruments.
type InstrumentSource interface {
	Match(strike float64) (call, put string)
	Lookup(name string) (model.Instrument, bool)
}

// MarketData fetches per-instrument market data.
type MarketData interface {
	GetOrderBook(ctx context.Context, name string) (model.OrderBook, error)
	GetTicker(ctx context.Context, name string) (model.Ticker, error)
}

// EvaluatorConfig holds evaluation settings.
type EvaluatorConfig struct {
	Black76        bool          // Prefer Black-76 over the order book mid
	Testnet        bool          // Stamped on every entry
	RequestTimeout time.Duration // Per-request timeout; 0 means none
}

// Evaluator computes one snapshot of marks.
type Evaluator struct {
	cfg         EvaluatorConfig
	instruments InstrumentSource
	data        MarketData
	logger      *slog.Logger
	now         func() time.Time
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(cfg EvaluatorConfig, instruments InstrumentSource, data MarketData, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		cfg:         cfg,
		instruments: instruments,
		data:        data,
		logger:      logger,
		now:         time.Now,
	}
}

// StrikeKey formats a strike as a snapshot key: 100000, 97500.5.
func StrikeKey(strike float64) string {
	return strconv.FormatFloat(strike, 'f', -1, 64)
}

// Evaluate prices every strike on both sides.
func (e *Evaluator) Evaluate(ctx context.Context, strikes []float64) model.MarkSnapshot {
	snap := model.MarkSnapshot{
		Timestamp: e.now().Unix(),
		Testnet:   e.cfg.Testnet,
		Marks:     make(map[string]model.StrikeMarks, len(strikes)),
	}

	for _, strike := range strikes {
		call, put := e.instruments.Match(strike)
		key := StrikeKey(strike)
		snap.Marks[key] = model.StrikeMarks{
			model.Call: e.evaluateSide(ctx, strike, model.Call, call),
			model.Put:  e.evaluateSide(ctx, strike, model.Put, put),
		}
	}

	return snap
}

func (e *Evaluator) evaluateSide(ctx context.Context, strike float64, side model.OptionType, name string) model.MarkEntry {
	if name == "" {
		e.logger.Info("no instrument for strike", "strike", strike, "side", side)
		return model.MarkEntry{
			Error:     ErrMsgNoMatch,
			Testnet:   e.cfg.Testnet,
			Unmatched: true,
		}
	}

	inst, _ := e.instruments.Lookup(name)
	standard := market.IsStandard(inst, strike)

	mark, ticker, err := e.compute(ctx, inst, standard)
	if err != nil {
		e.logger.Warn("failed to fetch market data", "instrument", name, "error", err)
		return model.MarkEntry{
			Instrument: name,
			IsStandard: model.Bool(standard),
			Error:      ErrMsgFetchPref + err.Error(),
			Testnet:    e.cfg.Testnet,
		}
	}
	if mark == nil {
		e.logger.Warn("no usable order book data", "instrument", name)
		return model.MarkEntry{
			Instrument: name,
			IsStandard: model.Bool(standard),
			Error:      ErrMsgNoData,
			Testnet:    e.cfg.Testnet,
		}
	}

	if !standard {
		e.logger.Info("closest instrument used", "strike", strike, "side", side, "instrument", name)
		return model.MarkEntry{
			ComputedMark:      mark,
			IsStandard:        model.Bool(false),
			ClosestInstrument: model.String(name),
			Testnet:           e.cfg.Testnet,
		}
	}

	return model.MarkEntry{
		ComputedMark: mark,
		IsStandard:   model.Bool(true),
		Instrument:   name,
		DeribitMark:  ticker.MarkPrice,
		Testnet:      e.cfg.Testnet,
	}
}

// compute fetches data for inst and returns the rounded mark, or nil when no
// estimate is available. The ticker is fetched when Black-76 is enabled or
// the exchange mark is needed for a standard strike.
func (e *Evaluator) compute(ctx context.Context, inst model.Instrument, standard bool) (*float64, model.Ticker, error) {
	book, err := e.orderBook(ctx, inst.Name)
	if err != nil {
		return nil, model.Ticker{}, err
	}

	var ticker model.Ticker
	if e.cfg.Black76 || standard {
		ticker, err = e.ticker(ctx, inst.Name)
		if err != nil {
			return nil, model.Ticker{}, err
		}
	}

	var (
		value float64
		ok    bool
	)
	if e.cfg.Black76 {
		value, ok = pricing.Black76(ticker, inst)
	}
	if !ok {
		value, ok = pricing.EstimateMid(book)
	}
	if !ok {
		return nil, ticker, nil
	}

	return model.Float(roundMark(value)), ticker, nil
}

func (e *Evaluator) orderBook(ctx context.Context, name string) (model.OrderBook, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.data.GetOrderBook(ctx, name)
}

func (e *Evaluator) ticker(ctx context.Context, name string) (model.Ticker, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.data.GetTicker(ctx, name)
}

func (e *Evaluator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.RequestTimeout)
}

func roundMark(v float64) float64 {
	return decimal.NewFromFloat(v).Round(markPlaces).InexactFloat64()
}
