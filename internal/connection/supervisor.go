package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Supervisor keeps one feed connection alive, reconnecting with exponential
// backoff and forwarding frames to a single output channel. Consumers never
// see connection churn; at worst they see a gap, which the book mirror
// reports via its update-id contiguity check.
type Supervisor struct {
	cfg    SupervisorConfig
	logger *slog.Logger

	output chan RawMessage

	newClient func(ClientConfig, *slog.Logger) Client // injectable for tests

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	connected  bool
	reconnects int64
}

// NewSupervisor creates a supervisor for the configured feed URL.
func NewSupervisor(cfg SupervisorConfig, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:       cfg,
		logger:    logger,
		output:    make(chan RawMessage, cfg.OutputBufferSize),
		newClient: NewClient,
	}
}

// Start begins the connect/forward/reconnect loop.
func (s *Supervisor) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("feed supervisor started", "url", s.cfg.Client.URL)
	return nil
}

// Stop gracefully shuts down the supervisor and closes the output channel.
func (s *Supervisor) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("feed supervisor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages returns the merged output channel.
func (s *Supervisor) Messages() <-chan RawMessage {
	return s.output
}

// IsConnected reports whether a connection is currently up.
func (s *Supervisor) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Reconnects returns the number of reconnect cycles performed.
func (s *Supervisor) Reconnects() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconnects
}

// run is the supervision loop: one iteration per connection lifetime.
func (s *Supervisor) run() {
	defer s.wg.Done()
	defer close(s.output)

	delay := s.cfg.ReconnectBaseDelay

	for {
		if s.ctx.Err() != nil {
			return
		}

		client := s.newClient(s.cfg.Client, s.logger)

		if err := client.Connect(s.ctx); err != nil {
			s.logger.Warn("feed connect failed",
				"err", err,
				"retry_in", delay,
			)
			if !s.sleep(delay) {
				return
			}
			delay = s.nextDelay(delay)
			continue
		}

		s.setConnected(true)
		delay = s.cfg.ReconnectBaseDelay // healthy connection resets backoff

		s.forward(client)

		s.setConnected(false)
		client.Close()

		if s.ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		s.reconnects++
		s.mu.Unlock()

		s.logger.Warn("feed connection lost, reconnecting", "in", delay)
		if !s.sleep(delay) {
			return
		}
		delay = s.nextDelay(delay)
	}
}

// forward pumps frames from one client until it dies or the supervisor stops.
func (s *Supervisor) forward(client Client) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case err := <-client.Errors():
			s.logger.Warn("feed connection error", "err", err)
			s.drain(client)
			return
		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			select {
			case s.output <- msg:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// drain forwards frames the dying client already received before its error
// surfaced, so they are not lost to the reconnect.
func (s *Supervisor) drain(client Client) {
	for {
		select {
		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			select {
			case s.output <- msg:
			case <-s.ctx.Done():
				return
			}
		default:
			return
		}
	}
}

func (s *Supervisor) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *Supervisor) nextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > s.cfg.ReconnectMaxDelay {
		next = s.cfg.ReconnectMaxDelay
	}
	return next
}

// sleep waits for d or until shutdown; returns false on shutdown.
func (s *Supervisor) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}
