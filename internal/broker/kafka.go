package broker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"purchase-service/config"
	"purchase-service/internal/util"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"
)

// Producer owns the long-lived writer for the purchases topic. It is
// constructed once at process start; Open must succeed before any publish.
type Producer struct {
	writer    *kafka.Writer
	brokers   []string
	connected atomic.Bool
	logger    *zap.Logger
}

// NewProducer creates a Kafka producer for the purchases topic
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	mechanism, err := saslMechanism(cfg)
	if err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Brokers...),
		Topic: cfg.TopicPurchases,
		// Hash keeps one userId on one partition, which is what gives
		// per-user delivery ordering downstream.
		Balancer:        &kafka.Hash{},
		RequiredAcks:    kafka.RequireAll,
		MaxAttempts:     cfg.RetryAttempts,
		WriteBackoffMin: cfg.RetryBackoff,
		WriteBackoffMax: 10 * cfg.RetryBackoff,
		WriteTimeout:    cfg.RequestTimeout,
		ReadTimeout:     cfg.RequestTimeout,
		Transport: &kafka.Transport{
			ClientID:    cfg.ClientID,
			DialTimeout: cfg.ConnectTimeout,
			SASL:        mechanism,
		},
	}

	return &Producer{
		writer:  writer,
		brokers: cfg.Brokers,
		logger:  util.GetLogger(),
	}, nil
}

// Open verifies the broker is reachable. The writer itself connects
// lazily, and a service must fail to start rather than run half-initialized
// when the broker is down.
func (p *Producer) Open(ctx context.Context) error {
	if err := dialCheck(ctx, p.brokers); err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	p.connected.Store(true)
	p.logger.Info("Kafka producer connected",
		zap.Strings("brokers", p.brokers),
		zap.String("topic", p.writer.Topic))
	return nil
}

// Publish writes one encoded message and blocks until the broker
// acknowledges it or the writer's retry budget is exhausted.
func (p *Producer) Publish(ctx context.Context, msg kafka.Message) error {
	start := time.Now()
	err := p.writer.WriteMessages(ctx, msg)
	util.PublishLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		p.connected.Store(false)
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.connected.Store(true)
	return nil
}

// Connected reports the last observed broker connection state. Health
// checks read this flag instead of performing a publish.
func (p *Producer) Connected() bool {
	return p.connected.Load()
}

// Close flushes in-flight publishes and closes the writer
func (p *Producer) Close() error {
	p.connected.Store(false)
	return p.writer.Close()
}

// Consumer owns the long-lived group reader for the purchases topic.
// Exactly one goroutine drives Fetch/Commit at a time.
type Consumer struct {
	reader    *kafka.Reader
	brokers   []string
	connected atomic.Bool
	logger    *zap.Logger
}

// NewConsumer creates a Kafka group consumer for the purchases topic
func NewConsumer(cfg config.KafkaConfig) (*Consumer, error) {
	mechanism, err := saslMechanism(cfg)
	if err != nil {
		return nil, err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.TopicPurchases,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		// Resume from the committed offset; a fresh group starts at the
		// end of the log, never from the beginning.
		StartOffset: kafka.LastOffset,
		Dialer: &kafka.Dialer{
			ClientID:      cfg.ClientID,
			Timeout:       cfg.ConnectTimeout,
			DualStack:     true,
			SASLMechanism: mechanism,
		},
	})

	return &Consumer{
		reader:  reader,
		brokers: cfg.Brokers,
		logger:  util.GetLogger(),
	}, nil
}

// Open verifies the broker is reachable before the consume loop starts
func (c *Consumer) Open(ctx context.Context) error {
	if err := dialCheck(ctx, c.brokers); err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	c.connected.Store(true)
	c.logger.Info("Kafka consumer connected",
		zap.Strings("brokers", c.brokers),
		zap.String("topic", c.reader.Config().Topic),
		zap.String("group", c.reader.Config().GroupID))
	return nil
}

// Fetch blocks until the next message is delivered. The offset is not
// advanced until Commit is called for the message.
func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.connected.Store(false)
		}
		return msg, err
	}
	c.connected.Store(true)
	return msg, nil
}

// Commit marks the message as processed for the consumer group
func (c *Consumer) Commit(ctx context.Context, msg kafka.Message) error {
	return c.reader.CommitMessages(ctx, msg)
}

// Connected reports the last observed broker connection state
func (c *Consumer) Connected() bool {
	return c.connected.Load()
}

// Close closes the group reader
func (c *Consumer) Close() error {
	c.connected.Store(false)
	return c.reader.Close()
}

// dialCheck opens and closes a raw connection to the first reachable broker
func dialCheck(ctx context.Context, brokers []string) error {
	var lastErr error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("no broker reachable: %w", lastErr)
}

// saslMechanism maps the configured mechanism name onto a kafka-go SASL
// implementation. An empty name disables SASL for local development.
func saslMechanism(cfg config.KafkaConfig) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case "":
		return nil, nil
	case "PLAIN":
		return plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASLMechanism)
	}
}
