package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate checks that all required fields are set and values are valid.
func (c *AnalyzerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Instance.Symbol == "" {
		return errors.New("instance.symbol is required")
	}

	if err := c.Database.Timescale.validate("database.timescale"); err != nil {
		return err
	}

	if c.Router.EventBufferSize < 1 {
		return errors.New("router.event_buffer_size must be >= 1")
	}

	if c.Writers.BatchSize < 1 {
		return errors.New("writers.batch_size must be >= 1")
	}

	if _, err := c.Analytics.Parsed(); err != nil {
		return err
	}
	if c.Analytics.BaseConfidence < 0 || c.Analytics.BaseConfidence > 1 {
		return fmt.Errorf("analytics.base_confidence must be in [0, 1], got %v", c.Analytics.BaseConfidence)
	}
	if c.Analytics.WarmupWindow < 1 {
		return errors.New("analytics.warmup_window must be >= 1")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

// ParsedAnalytics holds the decimal-valued analytics parameters.
type ParsedAnalytics struct {
	WhaleThreshold  decimal.Decimal
	MinnowThreshold decimal.Decimal
	MinIcebergSize  decimal.Decimal
	WallTolerance   decimal.Decimal
}

// Parsed converts the string-valued analytics fields to exact decimals.
func (a *AnalyticsConfig) Parsed() (ParsedAnalytics, error) {
	var p ParsedAnalytics
	var err error

	if p.WhaleThreshold, err = decimal.NewFromString(a.WhaleThreshold); err != nil {
		return p, fmt.Errorf("analytics.whale_threshold: %w", err)
	}
	if p.MinnowThreshold, err = decimal.NewFromString(a.MinnowThreshold); err != nil {
		return p, fmt.Errorf("analytics.minnow_threshold: %w", err)
	}
	if p.MinIcebergSize, err = decimal.NewFromString(a.MinIcebergSize); err != nil {
		return p, fmt.Errorf("analytics.min_iceberg_size: %w", err)
	}
	if p.WallTolerance, err = decimal.NewFromString(a.WallTolerance); err != nil {
		return p, fmt.Errorf("analytics.wall_tolerance: %w", err)
	}

	if p.MinnowThreshold.GreaterThan(p.WhaleThreshold) {
		return p, fmt.Errorf("analytics.minnow_threshold (%s) cannot exceed whale_threshold (%s)",
			p.MinnowThreshold, p.WhaleThreshold)
	}

	return p, nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
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
