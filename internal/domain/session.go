package domain

import "time"

type SessionState string

const (
	StateFlightSelection SessionState = "FLIGHT_SELECTION"
	StatePassengerTarget SessionState = "PASSENGER_TARGET"
	StateIdentityCapture SessionState = "IDENTITY_CAPTURE"
	StateCabinSelection  SessionState = "CABIN_SELECTION"
)

// FlightSession is the transient state of one in-flight booking attempt.
// It is discarded when the flow completes, fails, or idles past its TTL;
// nothing persistent is written before the completion step.
type FlightSession struct {
	ID        string       `json:"id"`
	UserID    int64        `json:"user_id"`
	State     SessionState `json:"state"`
	FlightCode string      `json:"flight_code,omitempty"`

	// ForOther marks a booking made on someone else's behalf. PassengerID
	// is nil until identity capture; nil at completion means the initiator
	// is the passenger.
	ForOther       bool   `json:"for_other"`
	PassengerID    *int64 `json:"passenger_id,omitempty"`
	RobloxUsername string `json:"roblox_username,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Passenger resolves the passenger's identifier, falling back to the
// initiator for self bookings.
func (s *FlightSession) Passenger() int64 {
	if s.PassengerID != nil {
		return *s.PassengerID
	}
	return s.UserID
}
