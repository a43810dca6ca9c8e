package database

import (
	"fmt"
	"net/url"

	"github.com/annamatynian/smartmoney-data/internal/config"
)

// BuildConnString builds the TimescaleDB connection string for the analyzer's
// time-series output (feature_snapshots and iceberg_events hypertables).
// Timescale speaks the postgres wire protocol, so a plain postgres:// URL is
// all pgxpool needs.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
