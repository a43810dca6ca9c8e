package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// gammaProfileResponse is the wire format of /v1/gamma/{symbol}.
// Wall prices arrive as decimal strings to avoid float drift.
type gammaProfileResponse struct {
	Symbol             string  `json:"symbol"`
	CallWall           string  `json:"call_wall"`
	PutWall            string  `json:"put_wall"`
	TotalExposure      float64 `json:"total_exposure"`
	NormalizedExposure float64 `json:"normalized_exposure"`
	ExpiryTS           int64   `json:"expiry_ts"`
}

// GetGammaProfile fetches the current gamma exposure profile for a symbol.
func (c *Client) GetGammaProfile(ctx context.Context, symbol string) (model.GammaProfile, error) {
	var resp gammaProfileResponse

	path := "/v1/gamma/" + url.PathEscape(symbol)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return model.GammaProfile{}, err
	}

	callWall, err := decimal.NewFromString(resp.CallWall)
	if err != nil {
		return model.GammaProfile{}, fmt.Errorf("parse call_wall %q: %w", resp.CallWall, err)
	}
	putWall, err := decimal.NewFromString(resp.PutWall)
	if err != nil {
		return model.GammaProfile{}, fmt.Errorf("parse put_wall %q: %w", resp.PutWall, err)
	}

	return model.GammaProfile{
		Symbol:             resp.Symbol,
		CallWall:           callWall,
		PutWall:            putWall,
		TotalExposure:      resp.TotalExposure,
		NormalizedExposure: resp.NormalizedExposure,
		ExpiryTS:           resp.ExpiryTS,
		UpdatedAt:          time.Now().UnixMicro(),
	}, nil
}
