package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const readErrorBackoff = time.Second

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Refresher reloads the catalog.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

// CatalogConsumer reloads the catalog whenever a CatalogUpdated event arrives.
// Other event types on the topic are skipped.
type CatalogConsumer struct {
	reader    MessageReader
	refresher Refresher
	logger    *zap.Logger
	backoff   time.Duration
}

func NewCatalogConsumer(brokers []string, topic, groupID string, refresher Refresher, logger *zap.Logger) *CatalogConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newCatalogConsumer(reader, refresher, logger)
}

func newCatalogConsumer(r MessageReader, refresher Refresher, logger *zap.Logger) *CatalogConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogConsumer{
		reader:    r,
		refresher: refresher,
		logger:    logger,
		backoff:   readErrorBackoff,
	}
}

// Run consumes until ctx is done.
func (c *CatalogConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.processMessage(ctx); err != nil {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *CatalogConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

// processMessage returns an error only when reading from the broker failed.
func (c *CatalogConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		c.logger.Error("error reading message", zap.Error(err))
		return err
	}

	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.logger.Warn("error parsing message", zap.Error(err), zap.Int64("offset", m.Offset))
		return nil
	}
	if env.EventType != EventCatalogUpdated {
		return nil
	}

	if err := c.refresher.Refresh(ctx); err != nil {
		c.logger.Warn("catalog refresh after event failed",
			zap.String("event_id", env.EventID),
			zap.Error(err),
		)
		return nil
	}
	c.logger.Info("catalog refreshed after event", zap.String("event_id", env.EventID))
	return nil
}
