package gamma

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/annamatynian/smartmoney-data/internal/model"
)

// ProfileSource fetches the latest gamma profile for an instrument.
type ProfileSource interface {
	GetGammaProfile(ctx context.Context, symbol string) (model.GammaProfile, error)
}

// PollerConfig holds poller settings.
type PollerConfig struct {
	Symbol   string        // Instrument to fetch
	Interval time.Duration // Poll interval (default: 5m)
	Timeout  time.Duration // Per-request timeout (default: 10s)
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 5 * time.Minute,
		Timeout:  10 * time.Second,
	}
}

// Poller periodically refreshes the tracker's profile from the options engine.
// A failed fetch keeps the previous profile; the analytics degrade gracefully
// when no profile was ever loaded.
type Poller struct {
	cfg     PollerConfig
	source  ProfileSource
	tracker *Tracker
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a poller feeding the given tracker.
func NewPoller(cfg PollerConfig, source ProfileSource, tracker *Tracker, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		tracker: tracker,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("gamma poller started",
		"symbol", p.cfg.Symbol,
		"interval", p.cfg.Interval,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("gamma poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Fetch immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll fetches one profile and swaps it into the tracker.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	profile, err := p.source.GetGammaProfile(ctx, p.cfg.Symbol)
	if err != nil {
		p.logger.Warn("failed to fetch gamma profile",
			"symbol", p.cfg.Symbol,
			"err", err,
		)
		return
	}

	p.tracker.Swap(&profile)

	p.logger.Debug("gamma profile updated",
		"symbol", p.cfg.Symbol,
		"call_wall", profile.CallWall,
		"put_wall", profile.PutWall,
	)
}
