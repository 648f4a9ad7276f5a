package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

var (
	// ErrConfig возвращается при неполной конфигурации брокера
	ErrConfig = errors.New("broker: invalid configuration")

	// ErrPublish возвращается, когда брокер не принял сообщения
	ErrPublish = errors.New("broker: publish failed")
)

// Заголовки сообщений о событиях бронирования
const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
	HeaderTenantID  = "tenant_id"
)

// KafkaPublisher публикует события outbox в топик Kafka.
// Ключ сообщения ID бронирования, поэтому события одного бронирования идут в одну партицию по порядку.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher создает писателя с подтверждением от всех реплик
func NewKafkaPublisher(brokers []string, topic string, writeTimeout time.Duration) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", ErrConfig)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: topic cannot be empty", ErrConfig)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: writeTimeout,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
	}
	return &KafkaPublisher{writer: writer}, nil
}

// Publish отправляет пачку событий одним вызовом
func (p *KafkaPublisher) Publish(ctx context.Context, events []*domain.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, Messages(events)...); err != nil {
		return fmt.Errorf("%w: %d messages: %v", ErrPublish, len(events), err)
	}
	return nil
}

// Close сбрасывает буферы и закрывает соединения
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Messages преобразует события в сообщения Kafka
func Messages(events []*domain.OutboxEvent) []kafka.Message {
	messages := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		messages = append(messages, kafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Time:  e.CreatedAt,
			Headers: []kafka.Header{
				{Key: HeaderEventID, Value: []byte(e.ID)},
				{Key: HeaderEventType, Value: []byte(e.EventType)},
				{Key: HeaderTenantID, Value: []byte(e.TenantID)},
			},
		})
	}
	return messages
}
