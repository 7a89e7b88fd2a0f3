package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerClient wraps a Completer with a circuit breaker so a struggling
// upstream model fails fast instead of stalling every intake worker.
type BreakerClient struct {
	inner   Completer
	breaker *gobreaker.CircuitBreaker[string]
}

// BreakerConfig tunes trip behaviour.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	Cooldown            time.Duration
	Logger              *zap.Logger
}

// NewBreakerClient wraps the given completer.
func NewBreakerClient(inner Completer, cfg BreakerConfig) *BreakerClient {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:    "ai-completions",
		Timeout: cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ai breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Complete executes the wrapped call through the breaker.
func (b *BreakerClient) Complete(ctx context.Context, prompt string) (string, error) {
	return b.breaker.Execute(func() (string, error) {
		return b.inner.Complete(ctx, prompt)
	})
}
