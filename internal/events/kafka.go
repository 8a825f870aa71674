package events

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

const kafkaPublisherName = "kafka"

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher produces events to a Kafka topic, keyed by sighting ID.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	log     logger.Logger
	metrics Metrics
}

// NewKafkaPublisher creates a producer for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, log logger.Logger, m Metrics) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newKafkaPublisherWithWriter(w, topic, log.Module("kafka"), m)
}

func newKafkaPublisherWithWriter(w messageWriter, topic string, log logger.Logger, m Metrics) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log, metrics: orNoop(m)}
}

func (p *KafkaPublisher) Name() string { return kafkaPublisherName }

// Publish writes event as one message.
func (p *KafkaPublisher) Publish(ctx context.Context, event SightingCreated) (err error) {
	start := time.Now()
	defer func() { recordPublish(p.metrics, kafkaPublisherName, start, err) }()

	msg, err := toMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.New(err).
			Component("events").
			Category(errors.CategoryKafkaPublish).
			Context("topic", p.topic).
			Context("sighting_id", event.Sighting.ID).
			Build()
	}

	p.log.Debug("sighting event produced",
		logger.String("topic", p.topic),
		logger.String("sighting_id", event.Sighting.ID))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(event SightingCreated) (kafkago.Message, error) {
	data, err := event.encode()
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
		Time: event.OccurredAt,
	}, nil
}
