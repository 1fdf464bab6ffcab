package writer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/deribit-marks/internal/config"
	"github.com/rickgao/deribit-marks/internal/database"
)

// Outputs is the set of sinks a run writes to.
type Outputs struct {
	File  *FileWriter
	Sinks Multi

	closers []func()
}

// Open builds the file sink plus the Postgres and Redis sinks enabled in cfg.
// Backends are connected and checked before returning.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Outputs, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file := NewFileWriter(FileConfig{
		MarksDir: cfg.Marks.OutputDir,
		DataDir:  cfg.Settlement.OutputDir,
	})
	o := &Outputs{File: file, Sinks: Multi{file}}

	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		o.closers = append(o.closers, pool.Close)

		if err := database.EnsureSchema(ctx, pool); err != nil {
			o.Close()
			return nil, err
		}

		pg := NewPostgresWriter(pool, logger)
		o.Sinks = append(o.Sinks, pg)
		logger.Info("database connected", "run_id", pg.RunID())
	}

	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			o.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		o.closers = append(o.closers, func() { rdb.Close() })
		o.Sinks = append(o.Sinks, NewRedisWriter(rdb, logger))
		logger.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	return o, nil
}

// Close releases backend connections in reverse order.
func (o *Outputs) Close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
	o.closers = nil
}
