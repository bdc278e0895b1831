package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer публикует доменные события через segmentio/kafka-go
type Producer struct {
	writer messageWriter
	log    *logger.Logger
}

// NewKafkaProducer создает и настраивает продюсер Kafka
func NewKafkaProducer(brokers []string, log *logger.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create producer")
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		AllowAutoTopicCreation: true,
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)
	return newProducer(writer, log), nil
}

func newProducer(w messageWriter, log *logger.Logger) *Producer {
	return &Producer{writer: w, log: log}
}

// Publish отправляет событие в топик. Ключ определяет партицию,
// поэтому события одного автора или материала сохраняют порядок.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload any) error {
	value, err := encodeEnvelope(topic, payload)
	if err != nil {
		p.log.Errorw("Failed to marshal event for Kafka", "error", err, "topic", topic, "key", key)
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(topic)},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.log.Errorw("Kafka write timeout exceeded", "error", err, "topic", topic, "key", key)
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		p.log.Errorw("Failed to write message to Kafka", "error", err, "topic", topic, "key", key)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	p.log.Infow("Successfully published message to Kafka", "topic", topic, "key", key)
	return nil
}

// Close закрывает writer; вызывается при завершении работы
func (p *Producer) Close() error {
	p.log.Infow("Closing Kafka producer writer...")
	if err := p.writer.Close(); err != nil {
		p.log.Errorw("Failed to close Kafka writer", "error", err)
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	return nil
}
