package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// ErrNotFound is returned when no snapshot is cached for a symbol.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotCache stores the latest feature snapshot per symbol as a hash at
// key "snapshot:{symbol}". Writes replace the whole hash, so readers never
// observe a mix of two snapshots' fields.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func snapshotKey(symbol string) string {
	return "snapshot:" + symbol
}

// SetSnapshot stores the latest snapshot for a symbol.
func (sc *SnapshotCache) SetSnapshot(ctx context.Context, snap model.FeatureSnapshot) error {
	key := snapshotKey(snap.Symbol)

	fields := map[string]interface{}{
		"snapshot_ts": strconv.FormatInt(snap.SnapshotTS, 10),
		"source":      snap.Source,
		"mid_price":   snap.MidPrice.String(),
		"spread":      snap.Spread.String(),
		"avg_price":   strconv.FormatFloat(snap.AvgPrice, 'f', -1, 64),
		"volatility":  strconv.FormatFloat(snap.Volatility, 'f', -1, 64),
		"window_size": strconv.Itoa(snap.WindowSize),
	}
	for segment, total := range snap.CVD {
		fields["cvd_"+string(segment)] = total.String()
	}

	pipe := sc.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.Symbol, err)
	}
	return nil
}

// GetSnapshot retrieves the latest cached snapshot for a symbol.
// It returns ErrNotFound when no snapshot has been cached.
func (sc *SnapshotCache) GetSnapshot(ctx context.Context, symbol string) (model.FeatureSnapshot, error) {
	key := snapshotKey(symbol)
	vals, err := sc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return model.FeatureSnapshot{}, fmt.Errorf("redis: get snapshot %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return model.FeatureSnapshot{}, ErrNotFound
	}

	snap := model.FeatureSnapshot{
		Symbol: symbol,
		Source: vals["source"],
		CVD:    make(map[model.Segment]decimal.Decimal, len(model.Segments)),
	}

	if snap.SnapshotTS, err = strconv.ParseInt(vals["snapshot_ts"], 10, 64); err != nil {
		return model.FeatureSnapshot{}, fmt.Errorf("redis: parse snapshot_ts %s: %w", symbol, err)
	}
	if snap.MidPrice, err = decimal.NewFromString(vals["mid_price"]); err != nil {
		return model.FeatureSnapshot{}, fmt.Errorf("redis: parse mid_price %s: %w", symbol, err)
	}
	if snap.Spread, err = decimal.NewFromString(vals["spread"]); err != nil {
		return model.FeatureSnapshot{}, fmt.Errorf("redis: parse spread %s: %w", symbol, err)
	}
	if snap.AvgPrice, err = strconv.ParseFloat(vals["avg_price"], 64); err != nil {
		return model.FeatureSnapshot{}, fmt.Errorf("redis: parse avg_price %s: %w", symbol, err)
	}
	if snap.Volatility, err = strconv.ParseFloat(vals["volatility"], 64); err != nil {
		return model.FeatureSnapshot{}, fmt.Errorf("redis: parse volatility %s: %w", symbol, err)
	}
	if snap.WindowSize, err = strconv.Atoi(vals["window_size"]); err != nil {
		return model.FeatureSnapshot{}, fmt.Errorf("redis: parse window_size %s: %w", symbol, err)
	}

	for _, segment := range model.Segments {
		raw, ok := vals["cvd_"+string(segment)]
		if !ok {
			continue
		}
		total, err := decimal.NewFromString(raw)
		if err != nil {
			return model.FeatureSnapshot{}, fmt.Errorf("redis: parse cvd_%s %s: %w", segment, symbol, err)
		}
		snap.CVD[segment] = total
	}

	return snap, nil
}
