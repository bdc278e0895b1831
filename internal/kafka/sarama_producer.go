package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/IBM/sarama"
)

// SaramaProducer синхронный продюсер для пакетных команд
type SaramaProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewSaramaProducer подключается к брокерам и создает синхронный продюсер
func NewSaramaProducer(cfg *Config, log *logger.Logger) (*SaramaProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to create sync producer: %w", err)
	}
	return NewSaramaProducerFrom(producer, log), nil
}

// NewSaramaProducerFrom оборачивает готовый sarama.SyncProducer
func NewSaramaProducerFrom(producer sarama.SyncProducer, log *logger.Logger) *SaramaProducer {
	return &SaramaProducer{producer: producer, log: log}
}

// Publish отправляет событие и ждет подтверждения брокера
func (p *SaramaProducer) Publish(ctx context.Context, topic, key string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := encodeEnvelope(topic, payload)
	if err != nil {
		return err
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(topic)},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.Errorw("Failed to publish event", "error", err, "topic", topic, "key", key)
		return fmt.Errorf("kafka: failed to publish event: %w", err)
	}

	p.log.Info("Published event to topic %s: partition=%d offset=%d", topic, partition, offset)
	return nil
}

// Close закрывает продюсер
func (p *SaramaProducer) Close() error {
	return p.producer.Close()
}
