package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/rickgao/deribit-marks/internal/api"
	"github.com/rickgao/deribit-marks/internal/connection"
	"github.com/rickgao/deribit-marks/internal/model"
)

// Env names an exchange environment. It doubles as the reconciliation label.
type Env string

const (
	Testnet Env = "testnet"
	Mainnet Env = "mainnet"
)

// CollectorConfig holds collection settings.
type CollectorConfig struct {
	Assets           []string
	InstrumentSuffix string        // e.g. "_USDC-PERPETUAL"
	Count            int           // Settlements per request
	Timeout          time.Duration // Wait for all responses of one environment
	Client           connection.ClientConfig
	URLs             map[Env]string
}

// Collector fetches settlement history over JSON-RPC.
type Collector struct {
	cfg    CollectorConfig
	logger *slog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(cfg CollectorConfig, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{cfg: cfg, logger: logger}
}

func requestKey(asset string, ts int64) string {
	return asset + "_" + strconv.FormatInt(ts, 10)
}

// Collect requests every asset at every timestamp in one pipeline and returns
// the usable points per asset. Requests that get no answer before the timeout
// are logged and skipped.
func (c *Collector) Collect(ctx context.Context, env Env, timestamps []int64) (map[string][]model.SettlementPoint, error) {
	url, ok := c.cfg.URLs[env]
	if !ok {
		return nil, fmt.Errorf("collect %s: no url configured", env)
	}
	clientCfg := c.cfg.Client
	clientCfg.URL = url

	logger := c.logger.With("env", env)
	start := time.Now()

	rpc, err := connection.Dial(ctx, clientCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", env, err)
	}
	defer rpc.Close()

	p := rpc.Pipeline()
	for _, asset := range c.cfg.Assets {
		instrument := asset + c.cfg.InstrumentSuffix
		for _, ts := range timestamps {
			if err := api.QueueSettlements(p, requestKey(asset, ts), instrument, ts, c.cfg.Count); err != nil {
				return nil, fmt.Errorf("collect %s: %w", env, err)
			}
		}
	}

	drainCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	responses := p.Drain(drainCtx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect %s: %w", env, err)
	}

	out := make(map[string][]model.SettlementPoint, len(c.cfg.Assets))
	last := len(timestamps) - 1
	for _, asset := range c.cfg.Assets {
		for i, ts := range timestamps {
			key := requestKey(asset, ts)
			resp, ok := responses[key]
			if !ok {
				logger.Warn("no response for settlement request", "request", key)
				continue
			}

			points, raw, err := api.DecodeSettlements(resp)
			if err != nil {
				logger.Warn("settlement request failed", "request", key, "error", err)
				continue
			}
			if raw == c.cfg.Count && i == last {
				logger.Warn("settlement count limit reached, more history may exist",
					"asset", asset,
					"count", raw,
				)
			}
			out[asset] = append(out[asset], points...)
		}
	}

	logger.Info("settlements collected",
		"requests", p.Len(),
		"responses", len(responses),
		"duration", time.Since(start),
	)

	return out, nil
}
