package flights

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/airkorea/flightdesk/internal/domain"
	"github.com/airkorea/flightdesk/internal/store"
)

// AdminAction is the closed set of admin panel actions. Keeping it a tagged
// variant makes adding an action a compile-checked change instead of a
// string comparison scattered through handlers.
type AdminAction int

const (
	ActionAdd AdminAction = iota
	ActionDelete
	ActionList
	ActionPassengers
)

var actionNames = []string{"add", "delete", "list", "passengers"}

var (
	ErrUnknownAction = errors.New("invalid action, use: add, delete, list, or passengers")
	ErrMissingFields = errors.New("flight_code, route, aircraft, spots and departure are all required")
)

func ParseAction(s string) (AdminAction, error) {
	switch strings.ToLower(s) {
	case "add":
		return ActionAdd, nil
	case "delete":
		return ActionDelete, nil
	case "list":
		return ActionList, nil
	case "passengers":
		return ActionPassengers, nil
	default:
		return 0, ErrUnknownAction
	}
}

// SuggestActions filters the action names for autocomplete, matching the
// current input anywhere in the name.
func SuggestActions(current string) []string {
	current = strings.ToLower(current)
	out := make([]string, 0, len(actionNames))
	for _, name := range actionNames {
		if strings.Contains(name, current) {
			out = append(out, name)
		}
	}
	return out
}

type FlightUseCase interface {
	AddFlight(ctx context.Context, input AddFlightInput) (*FlightStatus, error)
	DeleteFlight(ctx context.Context, code string) error
	ListFlights(ctx context.Context) ([]FlightStatus, error)
	Passengers(ctx context.Context, code string) (*Manifest, error)
}

type AddFlightInput struct {
	Code      string
	Route     string
	Aircraft  string
	Spots     int
	Departure string
	Timezone  string
}

// FlightStatus is one roster entry with computed occupancy.
type FlightStatus struct {
	Code       string `json:"code"`
	Route      string `json:"route"`
	Aircraft   string `json:"aircraft"`
	Booked     int    `json:"booked"`
	TotalSeats int    `json:"total_seats"`
	SpotsLeft  int    `json:"spots_left"`
	Departure  string `json:"departure"`
	Timezone   string `json:"timezone"`
}

type ManifestEntry struct {
	RobloxUsername string `json:"roblox_username"`
	BookingCode    string `json:"booking_code"`
}

type ClassSection struct {
	Class      string          `json:"class"`
	Passengers []ManifestEntry `json:"passengers"`
}

// Manifest partitions a flight's bookings by cabin class, highest class
// first. Entries with a cabin class outside the known four end up in an
// explicit Unassigned section instead of disappearing.
type Manifest struct {
	FlightCode string         `json:"flight_code"`
	Route      string         `json:"route"`
	Aircraft   string         `json:"aircraft"`
	Total      int            `json:"total"`
	Classes    []ClassSection `json:"classes"`
}

type FlightService struct {
	catalog store.CatalogStore
	ledger  store.LedgerStore
}

func NewFlightService(catalog store.CatalogStore, ledger store.LedgerStore) *FlightService {
	return &FlightService{catalog: catalog, ledger: ledger}
}

// AddFlight validates the required fields and unconditionally overwrites any
// existing entry at that code.
func (s *FlightService) AddFlight(ctx context.Context, input AddFlightInput) (*FlightStatus, error) {
	if input.Code == "" || input.Route == "" || input.Aircraft == "" || input.Spots <= 0 || input.Departure == "" {
		return nil, ErrMissingFields
	}
	if input.Timezone == "" {
		input.Timezone = domain.DefaultTimezone
	}

	flight := domain.Flight{
		Route:     input.Route,
		Aircraft:  input.Aircraft,
		SpotsLeft: input.Spots,
		Departure: input.Departure,
		Timezone:  input.Timezone,
	}
	if err := s.catalog.PutFlight(ctx, input.Code, flight); err != nil {
		return nil, err
	}

	return s.status(ctx, input.Code, flight)
}

func (s *FlightService) DeleteFlight(ctx context.Context, code string) error {
	if code == "" {
		return store.ErrFlightNotFound
	}
	return s.catalog.DeleteFlight(ctx, code)
}

func (s *FlightService) ListFlights(ctx context.Context) ([]FlightStatus, error) {
	all, err := s.catalog.Flights(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(all))
	for code := range all {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]FlightStatus, 0, len(codes))
	for _, code := range codes {
		st, err := s.status(ctx, code, all[code])
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}

func (s *FlightService) Passengers(ctx context.Context, code string) (*Manifest, error) {
	flight, err := s.catalog.Flight(ctx, code)
	if err != nil {
		return nil, err
	}

	bookings, err := s.ledger.Bookings(ctx, code)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		FlightCode: code,
		Route:      flight.Route,
		Aircraft:   flight.Aircraft,
		Total:      len(bookings),
	}

	byClass := map[domain.CabinClass][]ManifestEntry{}
	var unassigned []ManifestEntry
	for _, b := range bookings {
		entry := ManifestEntry{RobloxUsername: b.RobloxUsername, BookingCode: b.BookingCode}
		if b.CabinClass.Valid() {
			byClass[b.CabinClass] = append(byClass[b.CabinClass], entry)
		} else {
			unassigned = append(unassigned, entry)
		}
	}

	for _, class := range domain.CabinClasses {
		if entries := byClass[class]; len(entries) > 0 {
			manifest.Classes = append(manifest.Classes, ClassSection{Class: string(class), Passengers: entries})
		}
	}
	if len(unassigned) > 0 {
		manifest.Classes = append(manifest.Classes, ClassSection{Class: "Unassigned", Passengers: unassigned})
	}
	return manifest, nil
}

func (s *FlightService) status(ctx context.Context, code string, flight domain.Flight) (*FlightStatus, error) {
	bookings, err := s.ledger.Bookings(ctx, code)
	if err != nil {
		return nil, err
	}
	booked := len(bookings)

	return &FlightStatus{
		Code:       code,
		Route:      flight.Route,
		Aircraft:   flight.Aircraft,
		Booked:     booked,
		TotalSeats: booked + flight.SpotsLeft,
		SpotsLeft:  flight.SpotsLeft,
		Departure:  flight.Departure,
		Timezone:   flight.Timezone,
	}, nil
}

var _ FlightUseCase = (*FlightService)(nil)
