package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config is the root configuration shared by the marker and the reconciler.
type Config struct {
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Marks      MarksConfig      `yaml:"marks"`
	Settlement SettlementConfig `yaml:"settlement"`
	History    HistoryConfig    `yaml:"history"`
	Database   DBConfig         `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ExchangeConfig holds Deribit connection settings.
type ExchangeConfig struct {
	MainnetURL     string        `yaml:"mainnet_url"`
	TestnetURL     string        `yaml:"testnet_url"`
	Testnet        bool          `yaml:"testnet"` // Marker environment
	RequestTimeout time.Duration `yaml:"request_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	BufferSize     int           `yaml:"buffer_size"`
	Heartbeat      time.Duration `yaml:"heartbeat"` // Server heartbeat; 0 leaves it off
}

// URL returns the endpoint for the given environment.
func (e ExchangeConfig) URL(testnet bool) string {
	if testnet {
		return e.TestnetURL
	}
	return e.MainnetURL
}

// MarksConfig holds mark evaluation settings.
type MarksConfig struct {
	Currency  string        `yaml:"currency"`
	Kind      string        `yaml:"kind"`
	Expiry    string        `yaml:"expiry"` // e.g. "27JUN25"
	Strikes   []float64     `yaml:"strikes"`
	Duration  time.Duration `yaml:"duration"` // Total run time
	Interval  time.Duration `yaml:"interval"` // Pause between cycles
	Black76   bool          `yaml:"black76"`
	OutputDir string        `yaml:"output_dir"`
}

// BasketEntry is one asset of the valuation basket.
type BasketEntry struct {
	Symbol string  `yaml:"symbol"`
	Amount float64 `yaml:"amount"` // Units of the asset in the basket
}

// SettlementConfig holds settlement reconciliation settings.
type SettlementConfig struct {
	Basket                []BasketEntry `yaml:"basket"`
	InstrumentSuffix      string        `yaml:"instrument_suffix"`
	Count                 int           `yaml:"count"` // Settlements per request
	Steps                 int           `yaml:"steps"`
	DeltaYears            float64       `yaml:"delta_years"`
	Method                string        `yaml:"method"`
	GapFillAsset          string        `yaml:"gap_fill_asset"`
	SupplementFromHistory bool          `yaml:"supplement_from_history"`
	SupplementFromTestnet bool          `yaml:"supplement_from_testnet"`
	CollectTimeout        time.Duration `yaml:"collect_timeout"`
	OutputDir             string        `yaml:"output_dir"`
	Debug                 bool          `yaml:"debug"`
}

// Assets returns the basket symbols in configured order.
func (s SettlementConfig) Assets() []string {
	out := make([]string, len(s.Basket))
	for i, b := range s.Basket {
		out[i] = b.Symbol
	}
	return out
}

// Weights returns basket amounts keyed by symbol.
func (s SettlementConfig) Weights() map[string]float64 {
	out := make(map[string]float64, len(s.Basket))
	for _, b := range s.Basket {
		out[b.Symbol] = b.Amount
	}
	return out
}

// Instrument returns the perpetual whose settlements price asset.
func (s SettlementConfig) Instrument(asset string) string {
	return asset + s.InstrumentSuffix
}

// HistoryConfig holds the third-party daily close provider settings.
type HistoryConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Symbol     string        `yaml:"symbol"` // e.g. "PAXG-USD"
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// DBConfig holds a single database connection. An empty host disables it.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// RedisConfig holds the Redis sink connection. An empty addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether Redis is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// SlogLevel maps Level to a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
