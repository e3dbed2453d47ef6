package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishEligibility(t *testing.T) {
	cfg := NewProducerConfig("test")
	producer := mocks.NewAsyncProducer(t, cfg)

	var got EligibilityEvent
	producer.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		return json.Unmarshal(val, &got)
	})

	pub := NewKafkaPublisher(producer, "campaign.eligibility", slog.New(slog.NewTextHandler(io.Discard, nil)))

	completed := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	err := pub.PublishEligibility(context.Background(), EligibilityEvent{
		CampaignID: "camp", BrandID: "brand", CreatorID: "creator",
		Eligible: true, CompletedAt: completed, EmittedAt: completed,
	})
	require.NoError(t, err)

	var msg *sarama.ProducerMessage
	select {
	case msg = <-producer.Successes():
	case <-time.After(time.Second):
		t.Fatal("message was not produced")
	}

	assert.Equal(t, "campaign.eligibility", msg.Topic)
	key, err := msg.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "camp", string(key))
	assert.Equal(t, "creator", got.CreatorID)
	assert.True(t, got.Eligible)

	require.NoError(t, producer.Close())
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishEligibility(context.Background(), EligibilityEvent{}))
}
