package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/airkorea/flightdesk/internal/domain"
	"github.com/airkorea/flightdesk/internal/messenger"
	"github.com/airkorea/flightdesk/internal/session"
	"github.com/airkorea/flightdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCatalogStore struct {
	mock.Mock
}

func (m *MockCatalogStore) Flights(ctx context.Context) (map[string]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]domain.Flight), args.Error(1)
}

func (m *MockCatalogStore) Flight(ctx context.Context, code string) (*domain.Flight, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockCatalogStore) PutFlight(ctx context.Context, code string, flight domain.Flight) error {
	args := m.Called(ctx, code, flight)
	return args.Error(0)
}

func (m *MockCatalogStore) DeleteFlight(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockCatalogStore) ReloadFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) Bookings(ctx context.Context, code string) ([]domain.Booking, error) {
	args := m.Called(ctx, code)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockLedgerStore) CompleteBooking(ctx context.Context, code string, booking domain.Booking) (*domain.Flight, error) {
	args := m.Called(ctx, code, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) ValidateUsername(ctx context.Context, username string) bool {
	args := m.Called(ctx, username)
	return args.Bool(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendDM(ctx context.Context, recipientID int64, itinerary messenger.Itinerary) error {
	args := m.Called(ctx, recipientID, itinerary)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var codePattern = regexp.MustCompile(`^AK\d{5}-[A-Z]{6}$`)

const bookerID int64 = 111111111111111111

func testFixture(t *testing.T) (*BookingService, *MockCatalogStore, *MockLedgerStore, *MockValidator, *MockSender, *session.MemoryStore) {
	t.Helper()
	catalog := &MockCatalogStore{}
	ledger := &MockLedgerStore{}
	validator := &MockValidator{}
	sender := &MockSender{}
	sessions := session.NewMemoryStore(5 * time.Minute)

	svc := NewBookingService(catalog, ledger, sessions, validator, sender)
	return svc, catalog, ledger, validator, sender, sessions
}

func openFlight(spots int) domain.Flight {
	return domain.Flight{
		Route:     "HEATHROW → KOSICE",
		Aircraft:  "Airbus A320-271N",
		SpotsLeft: spots,
		Departure: "2026-10-01 14:30",
		Timezone:  "Europe/London",
	}
}

// drive advances a fresh flow up to cabin selection for a self booking.
func drive(t *testing.T, svc *BookingService, catalog *MockCatalogStore, validator *MockValidator, flight domain.Flight) string {
	t.Helper()
	ctx := context.Background()

	catalog.On("Flights", ctx).Return(map[string]domain.Flight{"AK5453": flight}, nil).Once()
	flow, err := svc.StartFlow(ctx, bookerID)
	require.NoError(t, err)

	catalog.On("Flight", ctx, "AK5453").Return(&flight, nil).Once()
	_, err = svc.SelectFlight(ctx, flow.SessionID, bookerID, "AK5453")
	require.NoError(t, err)

	_, err = svc.ChoosePassenger(ctx, flow.SessionID, bookerID, false)
	require.NoError(t, err)

	validator.On("ValidateUsername", ctx, "kim_pilot").Return(true).Once()
	_, err = svc.SubmitIdentity(ctx, flow.SessionID, bookerID, IdentityInput{RobloxUsername: "kim_pilot"})
	require.NoError(t, err)

	return flow.SessionID
}

func TestStartFlow_EmptyCatalog(t *testing.T) {
	svc, catalog, _, _, _, sessions := testFixture(t)
	ctx := context.Background()

	catalog.On("Flights", ctx).Return(map[string]domain.Flight{}, nil).Once()

	flow, err := svc.StartFlow(ctx, bookerID)
	assert.ErrorIs(t, err, ErrNoFlights)
	assert.Nil(t, flow)

	// No session may be left behind.
	_ = sessions
	catalog.AssertExpectations(t)
}

func TestStartFlow_OptionsTruncatedAt25(t *testing.T) {
	svc, catalog, _, _, _, _ := testFixture(t)
	ctx := context.Background()

	flights := map[string]domain.Flight{}
	for i := 0; i < 30; i++ {
		flights[fmt.Sprintf("AK%04d", i)] = openFlight(3)
	}
	catalog.On("Flights", ctx).Return(flights, nil).Once()

	flow, err := svc.StartFlow(ctx, bookerID)
	require.NoError(t, err)
	assert.Len(t, flow.Options, 25)
	assert.Equal(t, "AK0000", flow.Options[0].Code)
	assert.Equal(t, "AK0000 - HEATHROW → KOSICE", flow.Options[0].Label)
	assert.Equal(t, "Airbus A320-271N • 3 spots", flow.Options[0].Description)
	assert.Len(t, flow.Process, 5)
}

func TestSelectFlight_WrongActorRejected(t *testing.T) {
	svc, catalog, _, _, _, _ := testFixture(t)
	ctx := context.Background()

	catalog.On("Flights", ctx).Return(map[string]domain.Flight{"AK5453": openFlight(3)}, nil).Once()
	flow, err := svc.StartFlow(ctx, bookerID)
	require.NoError(t, err)

	_, err = svc.SelectFlight(ctx, flow.SessionID, bookerID+1, "AK5453")
	assert.ErrorIs(t, err, ErrNotYourBooking)

	// The flow itself is untouched and still advanceable by its owner.
	catalog.On("Flight", ctx, "AK5453").Return(&domain.Flight{}, nil).Once()
	_, err = svc.SelectFlight(ctx, flow.SessionID, bookerID, "AK5453")
	assert.NoError(t, err)
}

func TestSelectFlight_UnknownSession(t *testing.T) {
	svc, _, _, _, _, _ := testFixture(t)

	_, err := svc.SelectFlight(context.Background(), "no-such-session", bookerID, "AK5453")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSelectFlight_OutOfOrderStep(t *testing.T) {
	svc, catalog, _, _, _, _ := testFixture(t)
	ctx := context.Background()

	catalog.On("Flights", ctx).Return(map[string]domain.Flight{"AK5453": openFlight(3)}, nil).Once()
	flow, err := svc.StartFlow(ctx, bookerID)
	require.NoError(t, err)

	// Cabin selection before any flight was chosen.
	_, err = svc.SelectCabin(ctx, flow.SessionID, bookerID, domain.CabinEconomy)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestSubmitIdentity_InvalidPassengerIDTerminatesFlow(t *testing.T) {
	svc, catalog, _, _, _, sessions := testFixture(t)
	ctx := context.Background()

	catalog.On("Flights", ctx).Return(map[string]domain.Flight{"AK5453": openFlight(3)}, nil).Once()
	flow, err := svc.StartFlow(ctx, bookerID)
	require.NoError(t, err)

	catalog.On("Flight", ctx, "AK5453").Return(&domain.Flight{}, nil).Once()
	_, err = svc.SelectFlight(ctx, flow.SessionID, bookerID, "AK5453")
	require.NoError(t, err)

	_, err = svc.ChoosePassenger(ctx, flow.SessionID, bookerID, true)
	require.NoError(t, err)

	_, err = svc.SubmitIdentity(ctx, flow.SessionID, bookerID, IdentityInput{
		RobloxUsername: "kim_pilot",
		PassengerID:    "not-a-number",
	})
	assert.ErrorIs(t, err, ErrInvalidPassengerID)

	_, err = sessions.Get(ctx, flow.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSubmitIdentity_InvalidUsernameTerminatesFlow(t *testing.T) {
	svc, catalog, _, validator, _, sessions := testFixture(t)
	ctx := context.Background()

	catalog.On("Flights", ctx).Return(map[string]domain.Flight{"AK5453": openFlight(3)}, nil).Once()
	flow, err := svc.StartFlow(ctx, bookerID)
	require.NoError(t, err)

	catalog.On("Flight", ctx, "AK5453").Return(&domain.Flight{}, nil).Once()
	_, err = svc.SelectFlight(ctx, flow.SessionID, bookerID, "AK5453")
	require.NoError(t, err)

	_, err = svc.ChoosePassenger(ctx, flow.SessionID, bookerID, false)
	require.NoError(t, err)

	validator.On("ValidateUsername", ctx, "ab").Return(false).Once()
	_, err = svc.SubmitIdentity(ctx, flow.SessionID, bookerID, IdentityInput{RobloxUsername: "ab"})
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, err = sessions.Get(ctx, flow.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSelectCabin_CompletesBooking(t *testing.T) {
	svc, catalog, ledger, validator, sender, sessions := testFixture(t)
	ctx := context.Background()

	sessionID := drive(t, svc, catalog, validator, openFlight(3))

	booked := openFlight(2)
	ledger.On("CompleteBooking", ctx, "AK5453", mock.AnythingOfType("domain.Booking")).Return(&booked, nil).Once()
	sender.On("SendDM", ctx, bookerID, mock.AnythingOfType("messenger.Itinerary")).Return(nil).Once()

	confirmation, err := svc.SelectCabin(ctx, sessionID, bookerID, domain.CabinBusiness)
	require.NoError(t, err)

	assert.Regexp(t, codePattern, confirmation.BookingCode)
	assert.Equal(t, "AK5453", confirmation.FlightCode)
	assert.Equal(t, domain.CabinBusiness, confirmation.CabinClass)
	assert.Equal(t, "kim_pilot", confirmation.RobloxUsername)
	assert.Equal(t, bookerID, confirmation.PassengerID)
	assert.True(t, confirmation.Delivered)
	assert.NotEqual(t, "N/A", confirmation.Boarding)

	// Terminal step: the session is gone.
	_, err = sessions.Get(ctx, sessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	ledger.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestSelectCabin_BooksForSomeoneElse(t *testing.T) {
	svc, catalog, ledger, validator, sender, _ := testFixture(t)
	ctx := context.Background()
	const passengerID int64 = 222222222222222222

	flight := openFlight(3)
	catalog.On("Flights", ctx).Return(map[string]domain.Flight{"AK5453": flight}, nil).Once()
	flow, err := svc.StartFlow(ctx, bookerID)
	require.NoError(t, err)

	catalog.On("Flight", ctx, "AK5453").Return(&flight, nil).Once()
	_, err = svc.SelectFlight(ctx, flow.SessionID, bookerID, "AK5453")
	require.NoError(t, err)

	_, err = svc.ChoosePassenger(ctx, flow.SessionID, bookerID, true)
	require.NoError(t, err)

	validator.On("ValidateUsername", ctx, "lee_flyer").Return(true).Once()
	_, err = svc.SubmitIdentity(ctx, flow.SessionID, bookerID, IdentityInput{
		RobloxUsername: "lee_flyer",
		PassengerID:    fmt.Sprintf("%d", passengerID),
	})
	require.NoError(t, err)

	booked := openFlight(2)
	ledger.On("CompleteBooking", ctx, "AK5453", mock.MatchedBy(func(b domain.Booking) bool {
		return b.DiscordID == passengerID && b.RobloxUsername == "lee_flyer"
	})).Return(&booked, nil).Once()
	// Confirmation goes to the passenger, not the booker.
	sender.On("SendDM", ctx, passengerID, mock.AnythingOfType("messenger.Itinerary")).Return(nil).Once()

	confirmation, err := svc.SelectCabin(ctx, flow.SessionID, bookerID, domain.CabinFirstClass)
	require.NoError(t, err)
	assert.Equal(t, passengerID, confirmation.PassengerID)

	sender.AssertExpectations(t)
}

func TestSelectCabin_SoldOutKeepsSession(t *testing.T) {
	svc, catalog, ledger, validator, _, sessions := testFixture(t)
	ctx := context.Background()

	sessionID := drive(t, svc, catalog, validator, openFlight(1))

	ledger.On("CompleteBooking", ctx, "AK5453", mock.AnythingOfType("domain.Booking")).Return(nil, store.ErrNoSpotsLeft).Once()

	_, err := svc.SelectCabin(ctx, sessionID, bookerID, domain.CabinEconomy)
	assert.ErrorIs(t, err, store.ErrNoSpotsLeft)

	// The cabin menu stays usable; no state change happened.
	sess, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCabinSelection, sess.State)
}

func TestSelectCabin_UnknownCabinClass(t *testing.T) {
	svc, catalog, _, validator, _, _ := testFixture(t)
	ctx := context.Background()

	sessionID := drive(t, svc, catalog, validator, openFlight(3))

	_, err := svc.SelectCabin(ctx, sessionID, bookerID, domain.CabinClass("Cargo Hold"))
	assert.ErrorIs(t, err, ErrInvalidCabinClass)
}

func TestSelectCabin_DeliveryFailureDoesNotRollBack(t *testing.T) {
	svc, catalog, ledger, validator, sender, _ := testFixture(t)
	ctx := context.Background()

	sessionID := drive(t, svc, catalog, validator, openFlight(3))

	booked := openFlight(2)
	ledger.On("CompleteBooking", ctx, "AK5453", mock.AnythingOfType("domain.Booking")).Return(&booked, nil).Once()
	sender.On("SendDM", ctx, bookerID, mock.AnythingOfType("messenger.Itinerary")).Return(messenger.ErrDeliveryForbidden).Once()

	confirmation, err := svc.SelectCabin(ctx, sessionID, bookerID, domain.CabinEconomy)
	require.NoError(t, err)
	assert.False(t, confirmation.Delivered)
	assert.Regexp(t, codePattern, confirmation.BookingCode)
}

func TestSelectCabin_MalformedDepartureFallsBack(t *testing.T) {
	svc, catalog, ledger, validator, sender, _ := testFixture(t)
	ctx := context.Background()

	flight := openFlight(3)
	flight.Departure = "whenever the fog lifts"
	sessionID := drive(t, svc, catalog, validator, flight)

	booked := flight
	booked.SpotsLeft = 2
	ledger.On("CompleteBooking", ctx, "AK5453", mock.AnythingOfType("domain.Booking")).Return(&booked, nil).Once()
	sender.On("SendDM", ctx, bookerID, mock.AnythingOfType("messenger.Itinerary")).Return(nil).Once()

	confirmation, err := svc.SelectCabin(ctx, sessionID, bookerID, domain.CabinEconomy)
	require.NoError(t, err)
	assert.Equal(t, "whenever the fog lifts", confirmation.Departure)
	assert.Equal(t, "N/A", confirmation.Boarding)
}

func TestSelectCabin_PublishesBookingEvent(t *testing.T) {
	catalog := &MockCatalogStore{}
	ledger := &MockLedgerStore{}
	validator := &MockValidator{}
	sender := &MockSender{}
	producer := &MockProducer{}
	sessions := session.NewMemoryStore(5 * time.Minute)

	svc := NewBookingService(catalog, ledger, sessions, validator, sender,
		WithProducer(producer, "booking-events"),
		WithNotificationsTopic("booking-notifications"),
	)
	ctx := context.Background()

	sessionID := drive(t, svc, catalog, validator, openFlight(3))

	booked := openFlight(2)
	ledger.On("CompleteBooking", ctx, "AK5453", mock.AnythingOfType("domain.Booking")).Return(&booked, nil).Once()
	sender.On("SendDM", ctx, bookerID, mock.AnythingOfType("messenger.Itinerary")).Return(nil).Once()
	producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()
	producer.On("Publish", ctx, "booking-notifications", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.SelectCabin(ctx, sessionID, bookerID, domain.CabinEconomy)
	require.NoError(t, err)

	producer.AssertExpectations(t)
}

func TestSelectCabin_PublishFailureDoesNotFailBooking(t *testing.T) {
	catalog := &MockCatalogStore{}
	ledger := &MockLedgerStore{}
	validator := &MockValidator{}
	sender := &MockSender{}
	producer := &MockProducer{}
	sessions := session.NewMemoryStore(5 * time.Minute)

	svc := NewBookingService(catalog, ledger, sessions, validator, sender,
		WithProducer(producer, "booking-events"),
	)
	ctx := context.Background()

	sessionID := drive(t, svc, catalog, validator, openFlight(3))

	booked := openFlight(2)
	ledger.On("CompleteBooking", ctx, "AK5453", mock.AnythingOfType("domain.Booking")).Return(&booked, nil).Once()
	sender.On("SendDM", ctx, bookerID, mock.AnythingOfType("messenger.Itinerary")).Return(nil).Once()
	producer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	confirmation, err := svc.SelectCabin(ctx, sessionID, bookerID, domain.CabinEconomy)
	require.NoError(t, err)
	assert.True(t, confirmation.Delivered)
}

func TestFormatDeparture(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)

	display, boarding := formatDeparture("2026-10-01 14:30", now)
	assert.Equal(t, "Thu, 01 Oct 2026 14:30 UTC", display)
	assert.Equal(t, "in 2h0m0s", boarding)

	display, boarding = formatDeparture("2026-10-01 10:00", now)
	assert.Equal(t, "Thu, 01 Oct 2026 10:00 UTC", display)
	assert.Equal(t, "departed", boarding)

	display, boarding = formatDeparture("01/10/2026", now)
	assert.Equal(t, "01/10/2026", display)
	assert.Equal(t, "N/A", boarding)
}
