// Package events publishes campaign domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

// EligibilityEvent announces that a creator has delivered every requirement of a campaign.
type EligibilityEvent struct {
	CampaignID  string    `json:"campaign_id"`
	BrandID     string    `json:"brand_id"`
	CreatorID   string    `json:"creator_id"`
	Eligible    bool      `json:"eligible"`
	CompletedAt time.Time `json:"completed_at"`
	EmittedAt   time.Time `json:"emitted_at"`
}

type Publisher interface {
	PublishEligibility(ctx context.Context, ev EligibilityEvent) error
}

// NoopPublisher drops events; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEligibility(context.Context, EligibilityEvent) error { return nil }

// KafkaPublisher writes events to a topic through a sarama AsyncProducer keyed by campaign.
type KafkaPublisher struct {
	producer  sarama.AsyncProducer
	topic     string
	log       *slog.Logger
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer sarama.AsyncProducer, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

// NewProducerConfig returns the sarama settings the publisher expects.
func NewProducerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	return cfg
}

// Start drains the producer's success and error channels.
func (p *KafkaPublisher) Start() {
	p.wg.Add(2)
	go p.handleSuccess()
	go p.handleErrors()
}

func (p *KafkaPublisher) handleSuccess() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		p.log.Debug("event delivered", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}

func (p *KafkaPublisher) handleErrors() {
	defer p.wg.Done()
	for err := range p.producer.Errors() {
		p.log.Error("event delivery failed", "topic", err.Msg.Topic, "error", err.Err)
	}
}

func (p *KafkaPublisher) PublishEligibility(ctx context.Context, ev EligibilityEvent) error {
	ctx, span := otel.Tracer("collab-engine/events").Start(ctx, "KafkaPublisher.PublishEligibility")
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("encode eligibility event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(ev.CampaignID),
		Value:     sarama.ByteEncoder(data),
		Timestamp: ev.EmittedAt,
		Headers:   traceHeaders(ctx),
	}

	select {
	case p.producer.Input() <- msg:
		span.SetAttributes(
			attribute.String("kafka.topic", p.topic),
			attribute.String("campaign.id", ev.CampaignID),
			attribute.String("creator.id", ev.CreatorID),
		)
		return nil
	case <-ctx.Done():
		span.SetStatus(codes.Error, "publish cancelled")
		return ctx.Err()
	}
}

// Close flushes pending messages and waits for the drain goroutines.
func (p *KafkaPublisher) Close() {
	p.closeOnce.Do(func() {
		p.producer.AsyncClose()
		p.wg.Wait()
	})
}

func traceHeaders(ctx context.Context) []sarama.RecordHeader {
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)

	headers := make([]sarama.RecordHeader, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	return headers
}
