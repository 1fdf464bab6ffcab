package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/deribit-marks/internal/model"
	"github.com/rickgao/deribit-marks/internal/reconcile"
)

// SettlementSource collects settlement history for one environment.
type SettlementSource interface {
	Collect(ctx context.Context, env Env, timestamps []int64) (map[string][]model.SettlementPoint, error)
}

// CloseSource provides third-party daily closes.
type CloseSource interface {
	Closes(ctx context.Context, symbol string, start, end time.Time) ([]model.DailyClose, error)
}

// MatchSink receives reconciled matches.
type MatchSink interface {
	WriteBestMatch(ctx context.Context, m model.BestMatch) error
}

// TableSink receives merged tables for debugging.
type TableSink interface {
	WriteTable(ctx context.Context, metric reconcile.Metric, label string, t *reconcile.Table) error
}

// Options selects one run's behavior.
type Options struct {
	Steps                 int
	DeltaYears            float64
	Metric                reconcile.Metric
	SupplementFromHistory bool // Fill the gap-fill asset from daily closes
	SupplementFromTestnet bool // Fill mainnet's gap-fill asset from testnet first
	Debug                 bool // Hand merged tables to the TableSink
}

// Result is the better match and the one it beat.
type Result struct {
	Best  model.BestMatch
	Other model.BestMatch
}

// EstimatorConfig holds the basket definition.
type EstimatorConfig struct {
	Assets        []string
	Weights       map[string]float64
	GapFillAsset  string // e.g. "PAXG"
	HistorySymbol string // e.g. "PAXG-USD"
}

// Estimator runs the two-environment reconciliation.
type Estimator struct {
	cfg     EstimatorConfig
	source  SettlementSource
	history CloseSource
	sink    MatchSink
	tables  TableSink
	logger  *slog.Logger
	now     func() time.Time
}

// NewEstimator creates a new Estimator. history and tables may be nil.
func NewEstimator(cfg EstimatorConfig, source SettlementSource, history CloseSource, sink MatchSink, tables TableSink, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{
		cfg:     cfg,
		source:  source,
		history: history,
		sink:    sink,
		tables:  tables,
		logger:  logger,
		now:     time.Now,
	}
}

// Run collects both environments concurrently, fills gaps, reconciles each
// and returns the lower-scoring match. Testnet wins ties.
func (e *Estimator) Run(ctx context.Context, opts Options) (Result, error) {
	if _, err := reconcile.ParseMetric(string(opts.Metric)); err != nil {
		return Result{}, err
	}

	timestamps := BackdatedTimestamps(e.now(), opts.Steps, opts.DeltaYears)
	e.logger.Info("starting settlement run",
		"steps", opts.Steps,
		"delta_years", opts.DeltaYears,
		"metric", opts.Metric,
	)

	var testData, mainData map[string][]model.SettlementPoint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		testData, err = e.source.Collect(gctx, Testnet, timestamps)
		return err
	})
	g.Go(func() error {
		var err error
		mainData, err = e.source.Collect(gctx, Mainnet, timestamps)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("collect settlements: %w", err)
	}

	testTable := reconcile.Merge(testData, e.cfg.Assets)
	if opts.SupplementFromHistory {
		e.fillFromHistory(ctx, Testnet, testTable)
	}

	mainTable := reconcile.Merge(mainData, e.cfg.Assets)
	if opts.SupplementFromTestnet {
		n := mainTable.FillFromTable(e.cfg.GapFillAsset, testTable)
		e.logger.Info("filled gaps from testnet", "asset", e.cfg.GapFillAsset, "filled", n)
	}
	if opts.SupplementFromHistory {
		e.fillFromHistory(ctx, Mainnet, mainTable)
	}

	if opts.Debug && e.tables != nil {
		e.writeTable(ctx, opts.Metric, Testnet, testTable)
		e.writeTable(ctx, opts.Metric, Mainnet, mainTable)
	}

	testMatch, err := reconcile.Reconcile(testTable, e.cfg.Weights, opts.Metric, string(Testnet))
	if err != nil {
		return Result{}, err
	}
	mainMatch, err := reconcile.Reconcile(mainTable, e.cfg.Weights, opts.Metric, string(Mainnet))
	if err != nil {
		return Result{}, err
	}

	for _, m := range []model.BestMatch{testMatch, mainMatch} {
		e.logger.Info("best match",
			"label", m.Label,
			"date", m.Date,
			"price_usd", m.PriceUSD,
			"score", m.Score,
		)
		if e.sink == nil {
			continue
		}
		if err := e.sink.WriteBestMatch(ctx, m); err != nil {
			return Result{}, fmt.Errorf("write best match %s: %w", m.Label, err)
		}
	}

	if reconcile.Better(testMatch, mainMatch).Label == testMatch.Label {
		return Result{Best: testMatch, Other: mainMatch}, nil
	}
	return Result{Best: mainMatch, Other: testMatch}, nil
}

func (e *Estimator) writeTable(ctx context.Context, metric reconcile.Metric, env Env, t *reconcile.Table) {
	if err := e.tables.WriteTable(ctx, metric, string(env), t); err != nil {
		e.logger.Warn("failed to write merged table", "env", env, "error", err)
	}
}

// fillFromHistory fills the gap-fill asset from daily closes covering the
// table's span. Failures are logged; the table is left as is.
func (e *Estimator) fillFromHistory(ctx context.Context, env Env, t *reconcile.Table) {
	asset := e.cfg.GapFillAsset
	if e.history == nil || t.Missing(asset) == 0 {
		return
	}

	first, last := t.Span()
	start, err := time.Parse(time.DateOnly, first)
	if err != nil {
		return
	}
	end, err := time.Parse(time.DateOnly, last)
	if err != nil {
		return
	}

	closes, err := e.history.Closes(ctx, e.cfg.HistorySymbol, start, end.AddDate(0, 0, 1))
	if err != nil {
		e.logger.Warn("failed to fetch daily closes", "env", env, "symbol", e.cfg.HistorySymbol, "error", err)
		return
	}

	n := t.FillFromCloses(asset, closes)
	e.logger.Info("filled gaps from daily closes",
		"env", env,
		"asset", asset,
		"closes", len(closes),
		"filled", n,
		"still_missing", t.Missing(asset),
	)
}
