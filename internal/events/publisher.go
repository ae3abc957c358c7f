package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/domain"
)

const (
	defaultBuffer       = 64
	defaultWriteTimeout = 5 * time.Second
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers  []string
	Topic    string
	Producer string
	Buffer   int
}

// Publisher forwards cart snapshots to Kafka from a single background loop.
// Publish never blocks: when the buffer is full the event is dropped and logged.
type Publisher struct {
	w            MessageWriter
	inbox        chan kafka.Message
	closeCh      chan struct{}
	producer     string
	writeTimeout time.Duration
	logger       *zap.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func NewPublisher(cfg Config, logger *zap.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, cfg, logger)
}

func newPublisher(w MessageWriter, cfg Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if cfg.Producer == "" {
		cfg.Producer = "storefront"
	}
	return &Publisher{
		w:            w,
		inbox:        make(chan kafka.Message, cfg.Buffer),
		closeCh:      make(chan struct{}),
		producer:     cfg.Producer,
		writeTimeout: defaultWriteTimeout,
		logger:       logger.With(zap.String("topic", cfg.Topic)),
	}
}

// Start runs the delivery loop until Close is called or ctx is done. Pending
// messages are flushed before the writer is closed.
func (p *Publisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(m)
				}
				p.closeWriter()
				return
			case m, ok := <-p.inbox:
				if !ok {
					p.closeWriter()
					return
				}
				p.write(m)
			}
		}
	}()
}

// Publish queues a CartUpdated event keyed by cartKey.
func (p *Publisher) Publish(cartKey string, snap domain.CartSnapshot) {
	env, err := NewCartUpdated(p.producer, cartKey, snap)
	if err != nil {
		p.logger.Error("failed to build cart event", zap.Error(err))
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("failed to encode cart event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(cartKey),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Debug("publisher closed, dropping cart event", zap.String("event_id", env.EventID))
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.dropped.Add(1)
		p.logger.Warn("publish buffer full, dropping cart event",
			zap.String("event_id", env.EventID),
			zap.Int64("dropped_total", p.dropped.Load()),
		)
	}
}

// Listener adapts the publisher to a cart subscription.
func (p *Publisher) Listener(cartKey string) func(domain.CartSnapshot) {
	return func(snap domain.CartSnapshot) {
		p.Publish(cartKey, snap)
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting events. The loop flushes what is queued and exits.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until the loop started by Start has exited.
func (p *Publisher) WaitClosed() {
	<-p.closeCh
}

func (p *Publisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Warn("failed to publish cart event",
			zap.ByteString("key", m.Key),
			zap.Error(err),
		)
	}
}

func (p *Publisher) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.logger.Warn("failed to close kafka writer", zap.Error(err))
	}
}
