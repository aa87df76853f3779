package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types published to the booking events topic.
const (
	EventBookingCreated  = "booking.created"
	EventBookingReturned = "booking.returned"
)

// BookingEvent is the payload published when a booking is created or
// returned. Keyed by user ID so one borrower's events stay ordered.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId"`
	MaterialID string    `json:"materialId"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher publishes booking lifecycle events.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, event BookingEvent)
	Close()
}

// KafkaPublisher implements Publisher on a Kafka topic. Publish failures
// are logged and never fail the request that triggered them.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a Publisher writing to the given brokers and
// topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("Failed to marshal booking event", zap.Error(err), zap.String("type", event.Type))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("type", event.Type),
			zap.String("booking_id", event.BookingID),
		)
	}
}

func (p *KafkaPublisher) Close() {
	_ = p.writer.Close()
}

// NopPublisher discards events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingEvent(context.Context, BookingEvent) {}
func (NopPublisher) Close()                                           {}
