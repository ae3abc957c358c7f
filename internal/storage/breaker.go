package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	Name string
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before letting a trial request through.
	Cooldown time.Duration
}

type breakerStorage struct {
	next Storage
	cb   *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps s so that repeated failures fail fast with ErrUnavailable
// instead of waiting on an unreachable backend.
func WithBreaker(s Storage, settings BreakerSettings, logger *zap.Logger) Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Name == "" {
		settings.Name = "storage"
	}
	if settings.Failures == 0 {
		settings.Failures = 3
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &breakerStorage{next: s, cb: cb}
}

type readResult struct {
	value string
	found bool
}

func (b *breakerStorage) Read(ctx context.Context, key string) (string, bool, error) {
	res, err := b.cb.Execute(func() (any, error) {
		v, found, err := b.next.Read(ctx, key)
		if err != nil {
			return nil, err
		}
		return readResult{value: v, found: found}, nil
	})
	if err != nil {
		return "", false, breakerError(err)
	}
	r := res.(readResult)
	return r.value, r.found, nil
}

func (b *breakerStorage) Write(ctx context.Context, key, value string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Write(ctx, key, value)
	})
	return breakerError(err)
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
