package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/deribit-marks/internal/config"
	"github.com/rickgao/deribit-marks/internal/connection"
	"github.com/rickgao/deribit-marks/internal/history"
	"github.com/rickgao/deribit-marks/internal/model"
	"github.com/rickgao/deribit-marks/internal/reconcile"
	"github.com/rickgao/deribit-marks/internal/settlement"
	"github.com/rickgao/deribit-marks/internal/version"
	"github.com/rickgao/deribit-marks/internal/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	steps := flag.Int("steps", config.DefaultSteps, "number of time steps")
	deltaYears := flag.Float64("delta_years", config.DefaultDeltaYears, "years between time steps")
	method := flag.String("method", config.DefaultMethod, "price estimation method: std, mad, or minmax")
	debug := flag.Bool("debug", false, "write merged price tables")
	fromHistory := flag.Bool("supplement-paxg", false, "fill missing gap-fill asset values from daily closes")
	fromTestnet := flag.Bool("supplement-paxg-from-testnet", false, "fill missing gap-fill asset values in mainnet from testnet first")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting reconciler",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Flags override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "steps":
			cfg.Settlement.Steps = *steps
		case "delta_years":
			cfg.Settlement.DeltaYears = *deltaYears
		case "method":
			cfg.Settlement.Method = *method
		case "debug":
			cfg.Settlement.Debug = *debug
		case "supplement-paxg":
			cfg.Settlement.SupplementFromHistory = *fromHistory
		case "supplement-paxg-from-testnet":
			cfg.Settlement.SupplementFromTestnet = *fromTestnet
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metric, err := reconcile.ParseMetric(cfg.Settlement.Method)
	if err != nil {
		logger.Error("invalid method", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, metric, logger, os.Stdout)
	cancel()
	if err != nil {
		logger.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource it opens and releases them before returning. The
// result goes to out.
func run(ctx context.Context, cfg *config.Config, metric reconcile.Metric, logger *slog.Logger, out io.Writer) error {
	outputs, err := writer.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open outputs: %w", err)
	}
	defer outputs.Close()

	collector := settlement.NewCollector(settlement.CollectorConfig{
		Assets:           cfg.Settlement.Assets(),
		InstrumentSuffix: cfg.Settlement.InstrumentSuffix,
		Count:            cfg.Settlement.Count,
		Timeout:          cfg.Settlement.CollectTimeout,
		Client: connection.ClientConfig{
			PingInterval: cfg.Exchange.PingInterval,
			PingTimeout:  cfg.Exchange.PingTimeout,
			WriteTimeout: cfg.Exchange.WriteTimeout,
			BufferSize:   cfg.Exchange.BufferSize,
			Heartbeat:    cfg.Exchange.Heartbeat,
		},
		URLs: map[settlement.Env]string{
			settlement.Testnet: cfg.Exchange.URL(true),
			settlement.Mainnet: cfg.Exchange.URL(false),
		},
	}, logger)

	closes := history.NewClient(cfg.History.BaseURL,
		history.WithLogger(logger),
		history.WithTimeout(cfg.History.Timeout),
		history.WithRetries(cfg.History.MaxRetries, time.Second),
		history.WithUserAgent(version.UserAgent()),
	)

	estimator := settlement.NewEstimator(settlement.EstimatorConfig{
		Assets:        cfg.Settlement.Assets(),
		Weights:       cfg.Settlement.Weights(),
		GapFillAsset:  cfg.Settlement.GapFillAsset,
		HistorySymbol: cfg.History.Symbol,
	}, collector, closes, outputs.Sinks, outputs.File, logger)

	result, err := estimator.Run(ctx, settlement.Options{
		Steps:                 cfg.Settlement.Steps,
		DeltaYears:            cfg.Settlement.DeltaYears,
		Metric:                metric,
		SupplementFromHistory: cfg.Settlement.SupplementFromHistory,
		SupplementFromTestnet: cfg.Settlement.SupplementFromTestnet,
		Debug:                 cfg.Settlement.Debug,
	})
	if err != nil {
		return err
	}

	return printResult(out, result.Best)
}

// printResult writes the winning match and the estimated price.
func printResult(w io.Writer, best model.BestMatch) error {
	data, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal best match: %w", err)
	}
	_, err = fmt.Fprintf(w, "Best overall match comes from %s:\n%s\n\nThe King Coconut price in USD is estimated to be: $%.4f\n",
		best.Label, data, best.PriceUSD)
	return err
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
