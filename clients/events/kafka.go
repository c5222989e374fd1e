package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"mountebank-client/logging"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type writerCreator func(w *kafka.Writer) (MessageWriter, error)

var defaultWriterCreator writerCreator = func(w *kafka.Writer) (MessageWriter, error) {
	return w, nil
}

// KafkaConfig configures a KafkaPublisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher writes events as JSON messages keyed by imposter port.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher builds a publisher on a kafka-go Writer. A nil logger
// disables logging.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher needs at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka publisher needs a topic")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := cfg.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	w, err := defaultWriterCreator(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           timeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka writer: %w", err)
	}
	logger.Info("kafka publisher ready", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &KafkaPublisher{writer: w, topic: cfg.Topic, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := event.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	msg := kafka.Message{
		Value:   value,
		Headers: []kafka.Header{{Key: "eventType", Value: []byte(event.Type)}},
		Time:    event.OccurredAt,
	}
	if event.Port != 0 {
		msg.Key = []byte(strconv.Itoa(event.Port))
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event to topic %s: %w", event.Type, p.topic, err)
	}
	p.logger.Debug("published event", "type", event.Type, "id", event.ID, "port", event.Port)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
