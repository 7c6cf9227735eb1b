package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is published on every lifecycle transition: hold_created,
// booking_confirmed, booking_cancelled, hold_expired.
type BookingEvent struct {
	Type        string    `json:"type"`
	PNR         string    `json:"pnr,omitempty"`
	HoldToken   string    `json:"hold_token,omitempty"`
	FlightID    int64     `json:"flight_id"`
	Seats       int       `json:"seats"`
	Email       string    `json:"email,omitempty"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	At          time.Time `json:"at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
