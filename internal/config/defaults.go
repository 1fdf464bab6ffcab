package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultMainnetURL       = "wss://www.deribit.com/ws/api/v2"
	DefaultTestnetURL       = "wss://test.deribit.com/ws/api/v2"
	DefaultRequestTimeout   = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPingTimeout      = 90 * time.Second
	DefaultBufferSize       = 10000
	DefaultCurrency         = "BTC"
	DefaultKind             = "option"
	DefaultMarksDuration    = 60 * time.Second
	DefaultMarksInterval    = 10 * time.Second
	DefaultMarksOutputDir   = "output"
	DefaultInstrumentSuffix = "_USDC-PERPETUAL"
	DefaultSettlementCount  = 1000
	DefaultSteps            = 2
	DefaultDeltaYears       = 2.5
	DefaultMethod           = "std"
	DefaultGapFillAsset     = "PAXG"
	DefaultCollectTimeout   = 60 * time.Second
	DefaultDataDir          = "data"
	DefaultHistoryBaseURL   = "https://query1.finance.yahoo.com"
	DefaultHistorySymbol    = "PAXG-USD"
	DefaultHistoryTimeout   = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// DefaultBasket is the coconut basket: the units of each asset that together
// are worth one coconut.
var DefaultBasket = []BasketEntry{
	{Symbol: "BTC", Amount: 0.00005181},
	{Symbol: "ETH", Amount: 0.0013371},
	{Symbol: "PAXG", Amount: 0.0015856},
	{Symbol: "SOL", Amount: 0.020196},
	{Symbol: "XRP", Amount: 7.2942},
	{Symbol: "ADA", Amount: 7.3376},
}

func (c *Config) applyDefaults() {
	// Exchange defaults
	if c.Exchange.MainnetURL == "" {
		c.Exchange.MainnetURL = DefaultMainnetURL
	}
	if c.Exchange.TestnetURL == "" {
		c.Exchange.TestnetURL = DefaultTestnetURL
	}
	if c.Exchange.RequestTimeout == 0 {
		c.Exchange.RequestTimeout = DefaultRequestTimeout
	}
	if c.Exchange.WriteTimeout == 0 {
		c.Exchange.WriteTimeout = DefaultWriteTimeout
	}
	if c.Exchange.PingInterval == 0 {
		c.Exchange.PingInterval = DefaultPingInterval
	}
	if c.Exchange.PingTimeout == 0 {
		c.Exchange.PingTimeout = DefaultPingTimeout
	}
	if c.Exchange.BufferSize == 0 {
		c.Exchange.BufferSize = DefaultBufferSize
	}

	// Marks defaults
	if c.Marks.Currency == "" {
		c.Marks.Currency = DefaultCurrency
	}
	if c.Marks.Kind == "" {
		c.Marks.Kind = DefaultKind
	}
	if c.Marks.Duration == 0 {
		c.Marks.Duration = DefaultMarksDuration
	}
	if c.Marks.Interval == 0 {
		c.Marks.Interval = DefaultMarksInterval
	}
	if c.Marks.OutputDir == "" {
		c.Marks.OutputDir = DefaultMarksOutputDir
	}

	// Settlement defaults
	if len(c.Settlement.Basket) == 0 {
		c.Settlement.Basket = append([]BasketEntry(nil), DefaultBasket...)
	}
	if c.Settlement.InstrumentSuffix == "" {
		c.Settlement.InstrumentSuffix = DefaultInstrumentSuffix
	}
	if c.Settlement.Count == 0 {
		c.Settlement.Count = DefaultSettlementCount
	}
	if c.Settlement.Steps == 0 {
		c.Settlement.Steps = DefaultSteps
	}
	if c.Settlement.DeltaYears == 0 {
		c.Settlement.DeltaYears = DefaultDeltaYears
	}
	if c.Settlement.Method == "" {
		c.Settlement.Method = DefaultMethod
	}
	if c.Settlement.GapFillAsset == "" {
		c.Settlement.GapFillAsset = DefaultGapFillAsset
	}
	if c.Settlement.CollectTimeout == 0 {
		c.Settlement.CollectTimeout = DefaultCollectTimeout
	}
	if c.Settlement.OutputDir == "" {
		c.Settlement.OutputDir = DefaultDataDir
	}

	// History defaults
	if c.History.BaseURL == "" {
		c.History.BaseURL = DefaultHistoryBaseURL
	}
	if c.History.Symbol == "" {
		c.History.Symbol = DefaultHistorySymbol
	}
	if c.History.Timeout == 0 {
		c.History.Timeout = DefaultHistoryTimeout
	}
	if c.History.MaxRetries == 0 {
		c.History.MaxRetries = DefaultMaxRetries
	}

	// Database defaults only matter once a host is set.
	if c.Database.Enabled() {
		applyDBDefaults(&c.Database)
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
