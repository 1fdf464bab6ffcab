package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// minHeartbeat is the shortest interval Deribit accepts for public/set_heartbeat.
const minHeartbeat = 10 * time.Second

var (
	validMethods   = []string{"std", "mad", "minmax"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json"}
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Exchange.BufferSize < 1 {
		return errors.New("exchange.buffer_size must be >= 1")
	}
	if c.Exchange.RequestTimeout <= 0 {
		return errors.New("exchange.request_timeout must be > 0")
	}
	if h := c.Exchange.Heartbeat; h != 0 && h < minHeartbeat {
		return fmt.Errorf("exchange.heartbeat must be 0 or >= %v, got %v", minHeartbeat, h)
	}

	if c.Marks.Interval <= 0 {
		return errors.New("marks.interval must be > 0")
	}
	if c.Marks.Duration < 0 {
		return errors.New("marks.duration must be >= 0")
	}

	if err := c.Settlement.validate(); err != nil {
		return err
	}

	if c.History.MaxRetries < 0 {
		return errors.New("history.max_retries must be >= 0")
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	if c.Redis.DB < 0 {
		return errors.New("redis.db must be >= 0")
	}

	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", validLogLevels, c.Logging.Level)
	}
	if !slices.Contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", validFormats, c.Logging.Format)
	}

	return nil
}

func (s *SettlementConfig) validate() error {
	seen := make(map[string]bool, len(s.Basket))
	for i, b := range s.Basket {
		if b.Symbol == "" {
			return fmt.Errorf("settlement.basket[%d].symbol is required", i)
		}
		if seen[b.Symbol] {
			return fmt.Errorf("settlement.basket has duplicate symbol %q", b.Symbol)
		}
		seen[b.Symbol] = true
		if b.Amount <= 0 {
			return fmt.Errorf("settlement.basket[%d].amount must be > 0", i)
		}
	}
	if s.Count < 1 {
		return errors.New("settlement.count must be >= 1")
	}
	if s.Steps < 1 {
		return errors.New("settlement.steps must be >= 1")
	}
	if !(s.DeltaYears > 0) || math.IsInf(s.DeltaYears, 0) {
		return errors.New("settlement.delta_years must be > 0")
	}
	if !slices.Contains(validMethods, s.Method) {
		return fmt.Errorf("settlement.method must be one of %v, got %q", validMethods, s.Method)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

// ValidateTarget checks the fields a mark run needs but that have no default.
func (m *MarksConfig) ValidateTarget() error {
	if m.Expiry == "" {
		return errors.New("marks.expiry is required")
	}
	if len(m.Strikes) == 0 {
		return errors.New("marks.strikes must not be empty")
	}
	for _, k := range m.Strikes {
		if !(k > 0) || math.IsInf(k, 0) {
			return fmt.Errorf("marks.strikes must be > 0, got %v", k)
		}
	}
	return nil
}
