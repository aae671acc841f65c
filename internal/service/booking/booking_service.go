package booking

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/airkorea/flightdesk/internal/bookingref"
	"github.com/airkorea/flightdesk/internal/domain"
	"github.com/airkorea/flightdesk/internal/kafka"
	"github.com/airkorea/flightdesk/internal/messenger"
	"github.com/airkorea/flightdesk/internal/session"
	"github.com/airkorea/flightdesk/internal/store"
	"github.com/google/uuid"
)

// maxFlightOptions caps the selection menu; anything beyond is silently
// truncated.
const maxFlightOptions = 25

var (
	ErrNoFlights          = errors.New("no flights available at the moment")
	ErrNotYourBooking     = errors.New("this isn't your booking")
	ErrWrongStep          = errors.New("booking flow is not at this step")
	ErrInvalidPassengerID = errors.New("invalid passenger id, please start the booking process again")
	ErrInvalidUsername    = errors.New("invalid roblox username, please start the booking process again")
	ErrInvalidCabinClass  = errors.New("unknown cabin class")
)

type BookingUseCase interface {
	StartFlow(ctx context.Context, userID int64) (*FlowStart, error)
	SelectFlight(ctx context.Context, sessionID string, userID int64, flightCode string) (*domain.FlightSession, error)
	ChoosePassenger(ctx context.Context, sessionID string, userID int64, forOther bool) (*domain.FlightSession, error)
	SubmitIdentity(ctx context.Context, sessionID string, userID int64, input IdentityInput) (*domain.FlightSession, error)
	SelectCabin(ctx context.Context, sessionID string, userID int64, cabin domain.CabinClass) (*Confirmation, error)
}

type Validator interface {
	ValidateUsername(ctx context.Context, username string) bool
}

type Sender interface {
	SendDM(ctx context.Context, recipientID int64, itinerary messenger.Itinerary) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	catalog            store.CatalogStore
	ledger             store.LedgerStore
	sessions           session.Store
	validator          Validator
	sender             Sender
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	catalog store.CatalogStore,
	ledger store.LedgerStore,
	sessions session.Store,
	validator Validator,
	sender Sender,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		catalog:   catalog,
		ledger:    ledger,
		sessions:  sessions,
		validator: validator,
		sender:    sender,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// FlightOption is one entry of the selection menu.
type FlightOption struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// FlowStart is the response to the booking entry point: a fresh session plus
// the menu and the process summary the gateway renders.
type FlowStart struct {
	SessionID string         `json:"session_id"`
	Options   []FlightOption `json:"options"`
	Process   []string       `json:"process"`
}

type IdentityInput struct {
	RobloxUsername string
	PassengerID    string
}

// Confirmation is the completed-booking summary, including whether the DM
// reached the passenger.
type Confirmation struct {
	BookingCode    string            `json:"booking_code"`
	FlightCode     string            `json:"flight_code"`
	Route          string            `json:"route"`
	Aircraft       string            `json:"aircraft"`
	RobloxUsername string            `json:"roblox_username"`
	PassengerID    int64             `json:"passenger_id"`
	CabinClass     domain.CabinClass `json:"cabin_class"`
	Timezone       string            `json:"timezone"`
	Departure      string            `json:"departure"`
	Boarding       string            `json:"boarding"`
	BookedAt       time.Time         `json:"booked_at"`
	Delivered      bool              `json:"delivered"`
}

func (s *BookingService) StartFlow(ctx context.Context, userID int64) (*FlowStart, error) {
	flights, err := s.catalog.Flights(ctx)
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		return nil, ErrNoFlights
	}

	codes := make([]string, 0, len(flights))
	for code := range flights {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	if len(codes) > maxFlightOptions {
		codes = codes[:maxFlightOptions]
	}

	options := make([]FlightOption, 0, len(codes))
	for _, code := range codes {
		f := flights[code]
		options = append(options, FlightOption{
			Code:        code,
			Label:       truncate(code+" - "+f.Route, 100),
			Description: truncate(f.Aircraft+" • "+strconv.Itoa(f.SpotsLeft)+" spots", 100),
		})
	}

	now := s.now().UTC()
	sess := &domain.FlightSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     domain.StateFlightSelection,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	return &FlowStart{
		SessionID: sess.ID,
		Options:   options,
		Process: []string{
			"Select your flight",
			"Choose passenger type",
			"Enter details",
			"Pick cabin class",
			"Receive confirmation",
		},
	}, nil
}

func (s *BookingService) SelectFlight(ctx context.Context, sessionID string, userID int64, flightCode string) (*domain.FlightSession, error) {
	sess, err := s.session(ctx, sessionID, userID, domain.StateFlightSelection)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalog.Flight(ctx, flightCode); err != nil {
		return nil, err
	}

	sess.FlightCode = flightCode
	sess.State = domain.StatePassengerTarget
	return s.save(ctx, sess)
}

func (s *BookingService) ChoosePassenger(ctx context.Context, sessionID string, userID int64, forOther bool) (*domain.FlightSession, error) {
	sess, err := s.session(ctx, sessionID, userID, domain.StatePassengerTarget)
	if err != nil {
		return nil, err
	}

	sess.ForOther = forOther
	sess.State = domain.StateIdentityCapture
	return s.save(ctx, sess)
}

func (s *BookingService) SubmitIdentity(ctx context.Context, sessionID string, userID int64, input IdentityInput) (*domain.FlightSession, error) {
	sess, err := s.session(ctx, sessionID, userID, domain.StateIdentityCapture)
	if err != nil {
		return nil, err
	}

	if sess.ForOther {
		passengerID, err := strconv.ParseInt(strings.TrimSpace(input.PassengerID), 10, 64)
		if err != nil {
			// Terminal: the user has to restart from flight selection.
			_ = s.sessions.Delete(ctx, sess.ID)
			return nil, ErrInvalidPassengerID
		}
		sess.PassengerID = &passengerID
	}

	username := strings.TrimSpace(input.RobloxUsername)
	if !s.validator.ValidateUsername(ctx, username) {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, ErrInvalidUsername
	}

	sess.RobloxUsername = username
	sess.State = domain.StateCabinSelection
	return s.save(ctx, sess)
}

func (s *BookingService) SelectCabin(ctx context.Context, sessionID string, userID int64, cabin domain.CabinClass) (*Confirmation, error) {
	sess, err := s.session(ctx, sessionID, userID, domain.StateCabinSelection)
	if err != nil {
		return nil, err
	}
	if !cabin.Valid() {
		return nil, ErrInvalidCabinClass
	}

	now := s.now().UTC()
	booking := domain.Booking{
		BookingCode:    bookingref.New(),
		RobloxUsername: sess.RobloxUsername,
		DiscordID:      sess.Passenger(),
		CabinClass:     cabin,
		BookedAt:       now,
	}

	// Re-reads the flight and rejects sold-out or deleted flights without
	// touching the session, so the cabin menu stays usable.
	flight, err := s.ledger.CompleteBooking(ctx, sess.FlightCode, booking)
	if err != nil {
		return nil, err
	}

	_ = s.sessions.Delete(ctx, sess.ID)

	departure, boarding := formatDeparture(flight.Departure, now)
	itinerary := messenger.Itinerary{
		FlightCode:     sess.FlightCode,
		Route:          flight.Route,
		Aircraft:       flight.Aircraft,
		BookingCode:    booking.BookingCode,
		RobloxUsername: booking.RobloxUsername,
		CabinClass:     string(cabin),
		Timezone:       flight.Timezone,
		Departure:      departure,
		Boarding:       boarding,
		BookedAt:       now,
	}

	delivered := true
	if err := s.sender.SendDM(ctx, booking.DiscordID, itinerary); err != nil {
		// The booking is already persisted; delivery failure only degrades
		// the response.
		log.Printf("confirmation delivery to %d failed: %v", booking.DiscordID, err)
		delivered = false
	}

	if err := s.publish(ctx, "booking_completed", sess.FlightCode, flight.Route, booking); err != nil {
		log.Printf("WARNING: failed to publish booking_completed event for %s: %v", booking.BookingCode, err)
	}

	return &Confirmation{
		BookingCode:    booking.BookingCode,
		FlightCode:     sess.FlightCode,
		Route:          flight.Route,
		Aircraft:       flight.Aircraft,
		RobloxUsername: booking.RobloxUsername,
		PassengerID:    booking.DiscordID,
		CabinClass:     cabin,
		Timezone:       flight.Timezone,
		Departure:      departure,
		Boarding:       boarding,
		BookedAt:       now,
		Delivered:      delivered,
	}, nil
}

// session loads and gates a flow: only the initiating user may advance it,
// and only from the step it is actually at.
func (s *BookingService) session(ctx context.Context, id string, userID int64, want domain.SessionState) (*domain.FlightSession, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrNotYourBooking
	}
	if sess.State != want {
		return nil, ErrWrongStep
	}
	return sess, nil
}

func (s *BookingService) save(ctx context.Context, sess *domain.FlightSession) (*domain.FlightSession, error) {
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *BookingService) publish(ctx context.Context, eventType, flightCode, route string, booking domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:           eventType,
		BookingCode:    booking.BookingCode,
		FlightCode:     flightCode,
		Route:          route,
		RobloxUsername: booking.RobloxUsername,
		PassengerID:    booking.DiscordID,
		CabinClass:     string(booking.CabinClass),
		BookedAt:       booking.BookedAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.BookingCode, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.BookingCode, event)
	}
	return nil
}

// formatDeparture turns the stored departure into an absolute display string
// and a relative boarding countdown. A malformed departure falls back to the
// raw string with an "N/A" countdown; it never fails the booking.
func formatDeparture(raw string, now time.Time) (string, string) {
	dt, err := time.Parse(domain.DepartureLayout, raw)
	if err != nil {
		log.Printf("error parsing departure time %q: %v", raw, err)
		return raw, "N/A"
	}

	display := dt.Format("Mon, 02 Jan 2006 15:04 UTC")
	until := dt.Sub(now)
	if until <= 0 {
		return display, "departed"
	}
	return display, "in " + until.Round(time.Minute).String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

var _ BookingUseCase = (*BookingService)(nil)
