package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafkaGo.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, logger.NewNop())

	err := p.Publish(context.Background(), TopicContentBoosted, "42", map[string]any{"article_id": 42})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicContentBoosted, msg.Topic)
	assert.Equal(t, "42", string(msg.Key))

	var env struct {
		ID      string         `json:"id"`
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, TopicContentBoosted, env.Type)
	assert.EqualValues(t, 42, env.Payload["article_id"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, logger.NewNop())
	err := p.Publish(context.Background(), TopicSubscriptionCheckout, "1", struct{}{})
	assert.Error(t, err)
}

func TestNewKafkaProducer_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducer(nil, logger.NewNop())
	assert.Error(t, err)
}

func TestSaramaProducer_Publish(t *testing.T) {
	cfg := NewSaramaConfig(NewConfig([]string{"localhost:9092"}), logger.NewNop())
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Type != TopicSubscriptionsExpired {
			return errors.New("unexpected event type " + env.Type)
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewSaramaProducerFrom(mock, logger.NewNop())
	require.NoError(t, p.Publish(context.Background(), TopicSubscriptionsExpired, "sweep", map[string]int64{"expired": 3}))
	assert.Error(t, p.Publish(context.Background(), TopicSubscriptionsExpired, "sweep", map[string]int64{"expired": 0}))
	require.NoError(t, p.Close())
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := NewSaramaConfig(NewConfig([]string{"localhost:9092"}), logger.NewNop())
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.NoError(t, cfg.Validate())
}

func TestMissingTopics(t *testing.T) {
	missing := missingTopics(map[string]bool{TopicContentBoosted: true})
	names := topicNames(missing)
	assert.Len(t, names, len(AllTopics)-1)
	assert.NotContains(t, names, TopicContentBoosted)
}
