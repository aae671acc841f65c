package email

import (
	"context"
	"fmt"

	"github.com/airkorea/flightdesk/internal/kafka"
)

// Sender delivers e-mail copies of booking confirmations from the
// notifications topic. The in-flow DM remains the primary channel; this one
// is best-effort backup.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("send confirmation to passenger %d: booking %s on flight %s (%s, %s)\n",
		event.PassengerID, event.BookingCode, event.FlightCode, event.Route, event.CabinClass)
	return nil
}
