package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airfare/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}
	fmt.Printf("send email to %s about %s for flight %d (%d seats, pnr %q)\n", event.Email, event.Type, event.FlightID, event.Seats, event.PNR)
	return nil
}
