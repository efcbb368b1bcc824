package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher emits order events to a topic.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaWriter builds a writer producing to topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// orderPlacedEvent is the message value.
type orderPlacedEvent struct {
	Type        string    `json:"type"`
	OrderID     int64     `json:"order_id"`
	UserID      int64     `json:"user_id"`
	Total       float64   `json:"total"`
	PaymentCode string    `json:"payment_code"`
	Lines       []lineOut `json:"lines"`
}

type lineOut struct {
	ProductID int64   `json:"product_id"`
	VariantID *int64  `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, o *models.Order) error {
	ev := orderPlacedEvent{
		Type:        models.EventOrderPlaced,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Total:       o.Total,
		PaymentCode: o.PaymentCode,
		Lines:       make([]lineOut, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		ev.Lines = append(ev.Lines, lineOut{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("order-placed-%d", o.ID)),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order %d: %w", o.ID, err)
	}
	return nil
}
