// Package kafka publishes appointment status changes to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
)

var (
	// ErrEncode возвращается, когда событие не удалось сериализовать
	ErrEncode = errors.New("kafka publisher: failed to encode event")

	// ErrWrite возвращается при ошибке записи в брокер
	ErrWrite = errors.New("kafka publisher: failed to write message")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher пишет события в топик, ключ сообщения - ID записи,
// поэтому события одной записи попадают в одну партицию по порядку
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewPublisher создает издателя для брокеров. Пустой список брокеров возвращает nil.
func NewPublisher(brokers []string, topic string) *Publisher {
	brokers = SplitBrokers(strings.Join(brokers, ","))
	if len(brokers) == 0 {
		return nil
	}
	return newPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}, topic)
}

func newPublisher(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

// Name returns the publisher label used in logs and metrics.
func (p *Publisher) Name() string {
	return "kafka"
}

// Publish пишет событие в топик
func (p *Publisher) Publish(ctx context.Context, ev domain.StatusChangedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.AppointmentID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeStatusChanged)},
			{Key: "status", Value: []byte(ev.To)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: topic=%s appointment=%s: %v", ErrWrite, p.topic, ev.AppointmentID, err)
	}
	return nil
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// SplitBrokers parses a comma separated broker list.
func SplitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
