package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/deribit-marks/internal/model"
)

// SnapshotHandler receives evaluated snapshots.
type SnapshotHandler interface {
	HandleSnapshot(ctx context.Context, snapshot model.MarkSnapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(context.Context, model.MarkSnapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(ctx context.Context, s model.MarkSnapshot) error {
	return f(ctx, s)
}

// SnapshotEvaluator produces one snapshot per call.
type SnapshotEvaluator interface {
	Evaluate(ctx context.Context, strikes []float64) model.MarkSnapshot
}

// Config holds poller configuration.
type Config struct {
	Strikes  []float64
	Duration time.Duration // Total run time; no new cycle starts after it
	Interval time.Duration // Pause between cycles
}

// Poller runs evaluation cycles on a fixed schedule.
type Poller struct {
	cfg       Config
	evaluator SnapshotEvaluator
	handler   SnapshotHandler
	logger    *slog.Logger
}

// New creates a new Poller.
func New(cfg Config, evaluator SnapshotEvaluator, handler SnapshotHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:       cfg,
		evaluator: evaluator,
		handler:   handler,
		logger:    logger,
	}
}

// Run evaluates immediately, then every Interval until Duration has elapsed
// or ctx is done. It returns the number of completed cycles and ctx.Err() if
// cancelled.
func (p *Poller) Run(ctx context.Context) (int, error) {
	start := time.Now()
	cycles := 0

	p.logger.Info("mark poller started",
		"strikes", len(p.cfg.Strikes),
		"duration", p.cfg.Duration,
		"interval", p.cfg.Interval,
	)

	for {
		p.cycle(ctx)
		cycles++

		if time.Since(start) >= p.cfg.Duration {
			p.logger.Info("mark poller finished", "cycles", cycles, "duration", time.Since(start))
			return cycles, nil
		}

		select {
		case <-ctx.Done():
			return cycles, ctx.Err()
		case <-time.After(p.cfg.Interval):
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	start := time.Now()
	snap := p.evaluator.Evaluate(ctx, p.cfg.Strikes)

	priced, failed := 0, 0
	for _, sm := range snap.Marks {
		for _, e := range sm {
			if e.ComputedMark != nil {
				priced++
			} else {
				failed++
			}
		}
	}

	if p.handler != nil {
		if err := p.handler.HandleSnapshot(ctx, snap); err != nil {
			p.logger.Error("failed to handle snapshot", "timestamp", snap.Timestamp, "error", err)
		}
	}

	p.logger.Info("mark cycle complete",
		"timestamp", snap.Timestamp,
		"priced", priced,
		"failed", failed,
		"duration", time.Since(start),
	)
}
