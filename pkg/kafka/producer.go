// Package kafka publishes migration lifecycle events to the event bus.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/metrics"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ValidationEvent represents an event about a validation run
type ValidationEvent struct {
	EventType   string          `json:"event_type"` // started, completed
	RunID       string          `json:"run_id"`
	TemplateID  string          `json:"template_id"`
	SourceOrgID string          `json:"source_org_id"`
	TargetOrgID string          `json:"target_org_id"`
	Data        json.RawMessage `json:"data,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// PublishValidationEvent publishes a validation run event to Kafka
func (p *Producer) PublishValidationEvent(ctx context.Context, event *ValidationEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishValidationEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.RunID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "template_id", Value: []byte(event.TemplateID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordKafkaPublish(p.topic, "error")
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish validation event")
		return err
	}
	metrics.RecordKafkaPublish(p.topic, "ok")

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":  event.EventType,
		"run_id":      event.RunID,
		"template_id": event.TemplateID,
	}).Debug("Published validation event")

	return nil
}
