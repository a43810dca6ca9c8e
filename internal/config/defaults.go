package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL              = "wss://stream.binance.com:9443/stream"
	DefaultSymbol             = "BTCUSDT"
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultFeedBufferSize     = 100000
	DefaultGammaPollInterval  = 5 * time.Minute
	DefaultGammaTimeout       = 10 * time.Second
	DefaultGammaMaxRetries    = 3
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultRedisPoolSize      = 10
	DefaultEventBufferSize    = 5000
	DefaultBatchSize          = 500
	DefaultFlushInterval      = 1 * time.Second
	DefaultWhaleThreshold     = "100000"
	DefaultMinnowThreshold    = "1000"
	DefaultMinIcebergSize     = "0.01"
	DefaultWallTolerance      = "0.001"
	DefaultBaseConfidence     = 0.6
	DefaultWallBoost          = 0.25
	DefaultWarmupWindow       = 60
	DefaultSnapshotInterval   = 1 * time.Second
	DefaultHealthPort         = 8080
	DefaultHealthPath         = "/health"
)

func (c *AnalyzerConfig) applyDefaults() {
	if c.Instance.Symbol == "" {
		c.Instance.Symbol = DefaultSymbol
	}

	// Feed defaults
	if c.Feed.WSURL == "" {
		c.Feed.WSURL = DefaultWSURL
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	// Gamma defaults
	if c.Gamma.PollInterval == 0 {
		c.Gamma.PollInterval = DefaultGammaPollInterval
	}
	if c.Gamma.Timeout == 0 {
		c.Gamma.Timeout = DefaultGammaTimeout
	}
	if c.Gamma.MaxRetries == 0 {
		c.Gamma.MaxRetries = DefaultGammaMaxRetries
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Redis defaults
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = DefaultRedisPoolSize
	}

	// Router defaults
	if c.Router.EventBufferSize == 0 {
		c.Router.EventBufferSize = DefaultEventBufferSize
	}

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}

	// Analytics defaults
	if c.Analytics.WhaleThreshold == "" {
		c.Analytics.WhaleThreshold = DefaultWhaleThreshold
	}
	if c.Analytics.MinnowThreshold == "" {
		c.Analytics.MinnowThreshold = DefaultMinnowThreshold
	}
	if c.Analytics.MinIcebergSize == "" {
		c.Analytics.MinIcebergSize = DefaultMinIcebergSize
	}
	if c.Analytics.WallTolerance == "" {
		c.Analytics.WallTolerance = DefaultWallTolerance
	}
	if c.Analytics.BaseConfidence == 0 {
		c.Analytics.BaseConfidence = DefaultBaseConfidence
	}
	if c.Analytics.WallBoost == 0 {
		c.Analytics.WallBoost = DefaultWallBoost
	}
	if c.Analytics.WarmupWindow == 0 {
		c.Analytics.WarmupWindow = DefaultWarmupWindow
	}
	if c.Analytics.SnapshotInterval == 0 {
		c.Analytics.SnapshotInterval = DefaultSnapshotInterval
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
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
