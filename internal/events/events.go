package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"cart-service/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Event types published after a session changes.
const (
	ItemAdded       = "item_added"
	ItemRemoved     = "item_removed"
	QuantityUpdated = "quantity_updated"
	CouponApplied   = "coupon_applied"
	CouponRemoved   = "coupon_removed"
	CurrencyChanged = "currency_changed"
	CartCleared     = "cart_cleared"
)

// Publisher emits cart events.
type Publisher interface {
	Publish(ctx context.Context, event entity.CartEvent) error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes cart events as JSON messages.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event entity.CartEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// cart-item_added-<session> or cart-coupon_applied-<session>
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("cart-%s-%s", event.Type, event.SessionID)),
		Value: eventJSON,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s event for session %s", event.Type, event.SessionID)
		return err
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, entity.CartEvent) error {
	return nil
}
