package config

import "time"

// AnalyzerConfig is the root configuration for an analyzer instance.
type AnalyzerConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Feed      FeedConfig      `yaml:"feed"`
	Gamma     GammaConfig     `yaml:"gamma"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Router    RouterConfig    `yaml:"router"`
	Writers   WritersConfig   `yaml:"writers"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Health    HealthConfig    `yaml:"health"`
}

// InstanceConfig identifies this analyzer and the instrument it follows.
type InstanceConfig struct {
	ID     string `yaml:"id"`
	Symbol string `yaml:"symbol"`
}

// FeedConfig holds exchange WebSocket settings.
type FeedConfig struct {
	WSURL              string        `yaml:"ws_url"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// GammaConfig holds the options-engine endpoint that supplies gamma profiles.
// An empty URL disables gamma polling; the analyzer degrades gracefully.
type GammaConfig struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
}

// DatabaseConfig holds the TimescaleDB connection for time-series output.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
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

// RedisConfig holds the latest-snapshot cache connection. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

// RouterConfig holds the message router buffer size. Book updates and trades
// share one ordered buffer.
type RouterConfig struct {
	EventBufferSize int `yaml:"event_buffer_size"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// AnalyticsConfig holds the microstructure engine parameters. Decimal-valued
// fields are YAML strings so they parse exactly; Validate rejects malformed
// values and Parsed returns them as decimals.
type AnalyticsConfig struct {
	WhaleThreshold   string        `yaml:"whale_threshold"`    // Notional above which a trade is whale
	MinnowThreshold  string        `yaml:"minnow_threshold"`   // Notional below which a trade is minnow
	MinIcebergSize   string        `yaml:"min_iceberg_size"`   // Hidden volume below this is noise
	WallTolerance    string        `yaml:"wall_tolerance"`     // Relative on-wall tolerance (e.g. "0.001")
	BaseConfidence   float64       `yaml:"base_confidence"`    // Iceberg confidence before gamma adjustment
	WallBoost        float64       `yaml:"wall_boost"`         // Additive confidence boost when on-wall
	WarmupWindow     int           `yaml:"warmup_window"`      // Price samples required before snapshots
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`  // Exchange-time gap between snapshots
}

// HealthConfig holds the health/debug HTTP endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
