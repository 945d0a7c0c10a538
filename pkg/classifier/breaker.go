package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker around the classifier call.
type BreakerConfig struct {
	MaxFailures  uint32        `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

// WithBreaker wraps a classifier in a circuit breaker so a dead backend
// stops costing a timeout per request. While the breaker is open every
// call fails fast with ErrUnavailable and scoring degrades to
// lexical-only, exactly as for a plain timeout.
type breakerClassifier struct {
	inner   Classifier
	breaker *gobreaker.CircuitBreaker
}

func WithBreaker(inner Classifier, cfg BreakerConfig) Classifier {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 5,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}
	return &breakerClassifier{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *breakerClassifier) Name() string { return b.inner.Name() }

func (b *breakerClassifier) Classify(ctx context.Context, text string) ([]CategoryScore, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Classify(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	scores, ok := result.([]CategoryScore)
	if !ok && result != nil {
		return nil, fmt.Errorf("%w: unexpected classifier result type", ErrUnavailable)
	}
	return scores, nil
}
