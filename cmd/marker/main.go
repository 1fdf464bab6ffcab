package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/deribit-marks/internal/api"
	"github.com/rickgao/deribit-marks/internal/config"
	"github.com/rickgao/deribit-marks/internal/connection"
	"github.com/rickgao/deribit-marks/internal/market"
	"github.com/rickgao/deribit-marks/internal/poller"
	"github.com/rickgao/deribit-marks/internal/version"
	"github.com/rickgao/deribit-marks/internal/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	expiry := flag.String("expiry", "", "option expiry, e.g. 27JUN25")
	t1 := flag.Int("T1", 0, "total run time in seconds")
	t2 := flag.Int("T2", 0, "seconds between evaluation cycles")
	strikes := flag.String("strikes", "", "comma-separated target strikes; extra arguments are read as strikes too")
	black76 := flag.Bool("black76", false, "price with Black-76, falling back to the order book mid")
	testnet := flag.Bool("testnet", false, "use the Deribit testnet")
	outputDir := flag.String("output", "", "directory for prices_<unix>.json files")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting marker",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Flags override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "expiry":
			cfg.Marks.Expiry = *expiry
		case "T1":
			cfg.Marks.Duration = time.Duration(*t1) * time.Second
		case "T2":
			cfg.Marks.Interval = time.Duration(*t2) * time.Second
		case "black76":
			cfg.Marks.Black76 = *black76
		case "testnet":
			cfg.Exchange.Testnet = *testnet
		case "output":
			cfg.Marks.OutputDir = *outputDir
		}
	})
	if *strikes != "" || flag.NArg() > 0 {
		parsed, err := parseStrikes(*strikes, flag.Args())
		if err != nil {
			logger.Error("invalid strikes", "error", err)
			os.Exit(1)
		}
		cfg.Marks.Strikes = parsed
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Marks.ValidateTarget(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("marker failed", "error", err)
		os.Exit(1)
	}
}

// run owns every resource it opens and releases them before returning.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	url := cfg.Exchange.URL(cfg.Exchange.Testnet)
	logger.Info("configuration loaded",
		"url", url,
		"expiry", cfg.Marks.Expiry,
		"strikes", cfg.Marks.Strikes,
		"duration", cfg.Marks.Duration,
		"interval", cfg.Marks.Interval,
		"black76", cfg.Marks.Black76,
	)

	outputs, err := writer.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open outputs: %w", err)
	}
	defer outputs.Close()

	rpc, err := connection.Dial(ctx, connection.ClientConfig{
		URL:          url,
		PingInterval: cfg.Exchange.PingInterval,
		PingTimeout:  cfg.Exchange.PingTimeout,
		WriteTimeout: cfg.Exchange.WriteTimeout,
		BufferSize:   cfg.Exchange.BufferSize,
		Heartbeat:    cfg.Exchange.Heartbeat,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect exchange: %w", err)
	}
	defer rpc.Close()

	apiClient := api.NewClient(rpc, logger)

	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.Exchange.RequestTimeout)
	catalog, err := market.Load(loadCtx, market.Config{
		Currency: cfg.Marks.Currency,
		Kind:     cfg.Marks.Kind,
		Expiry:   cfg.Marks.Expiry,
	}, apiClient, logger)
	loadCancel()
	if err != nil {
		return err
	}

	evaluator := poller.NewEvaluator(poller.EvaluatorConfig{
		Black76:        cfg.Marks.Black76,
		Testnet:        cfg.Exchange.Testnet,
		RequestTimeout: cfg.Exchange.RequestTimeout,
	}, catalog, apiClient, logger)

	p := poller.New(poller.Config{
		Strikes:  cfg.Marks.Strikes,
		Duration: cfg.Marks.Duration,
		Interval: cfg.Marks.Interval,
	}, evaluator, outputs.Sinks, logger)

	cycles, err := p.Run(ctx)
	if err != nil {
		logger.Info("marker interrupted", "cycles", cycles, "reason", err)
		return nil
	}

	logger.Info("marker finished", "cycles", cycles)
	return nil
}

// parseStrikes reads strikes from a comma-separated list and from extra
// positional arguments.
func parseStrikes(list string, args []string) ([]float64, error) {
	var fields []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			fields = append(fields, s)
		}
	}
	fields = append(fields, args...)

	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parse strike %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
