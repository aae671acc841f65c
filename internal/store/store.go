package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/airkorea/flightdesk/internal/domain"
)

var (
	ErrFlightNotFound = errors.New("flight not found")
	ErrNoSpotsLeft    = errors.New("no spots available on this flight")
)

// CatalogStore is the read/write surface over the flight catalog document.
type CatalogStore interface {
	Flights(ctx context.Context) (map[string]domain.Flight, error)
	Flight(ctx context.Context, code string) (*domain.Flight, error)
	PutFlight(ctx context.Context, code string, flight domain.Flight) error
	DeleteFlight(ctx context.Context, code string) error
	ReloadFlights(ctx context.Context) error
}

// LedgerStore is the surface over the booking ledger document. CompleteBooking
// is the only mutation: it decrements the flight's spots and appends the
// ledger entry behind one lock, so a booking and its seat decrement share a
// single durability boundary.
type LedgerStore interface {
	Bookings(ctx context.Context, code string) ([]domain.Booking, error)
	CompleteBooking(ctx context.Context, code string, booking domain.Booking) (*domain.Flight, error)
}

// JSONStore keeps the catalog and ledger in memory, mirroring two JSON
// documents on disk. Every mutation rewrites the affected document wholesale:
// no partial updates, no atomic rename, no backup. Write failures propagate
// to the caller and abort the triggering command.
type JSONStore struct {
	mu           sync.RWMutex
	flightsPath  string
	bookingsPath string
	flights      map[string]domain.Flight
	bookings     map[string][]domain.Booking
}

// Open loads both documents. A missing file is not an error: it logs a
// warning and starts with an empty mapping.
func Open(flightsPath, bookingsPath string) (*JSONStore, error) {
	s := &JSONStore{
		flightsPath:  flightsPath,
		bookingsPath: bookingsPath,
		flights:      map[string]domain.Flight{},
		bookings:     map[string][]domain.Booking{},
	}

	if err := readDocument(flightsPath, &s.flights, "flight catalog"); err != nil {
		return nil, err
	}
	if err := readDocument(bookingsPath, &s.bookings, "booking ledger"); err != nil {
		return nil, err
	}
	return s, nil
}

func readDocument(path string, out interface{}, what string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("warning: %s not found, starting with empty %s", path, what)
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeDocument(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *JSONStore) Flights(ctx context.Context) (map[string]domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Flight, len(s.flights))
	for code, f := range s.flights {
		out[code] = f
	}
	return out, nil
}

func (s *JSONStore) Flight(ctx context.Context, code string) (*domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[code]
	if !ok {
		return nil, ErrFlightNotFound
	}
	return &f, nil
}

func (s *JSONStore) PutFlight(ctx context.Context, code string, flight domain.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights[code] = flight
	return writeDocument(s.flightsPath, s.flights)
}

func (s *JSONStore) DeleteFlight(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flights[code]; !ok {
		return ErrFlightNotFound
	}
	// Ledger entries for the deleted flight are retained for audit.
	delete(s.flights, code)
	return writeDocument(s.flightsPath, s.flights)
}

// ReloadFlights replaces the in-memory catalog with whatever is on disk,
// picking up edits made outside the process. Disk wins.
func (s *JSONStore) ReloadFlights(ctx context.Context) error {
	fresh := map[string]domain.Flight{}
	if err := readDocument(s.flightsPath, &fresh, "flight catalog"); err != nil {
		return err
	}

	s.mu.Lock()
	s.flights = fresh
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Bookings(ctx context.Context, code string) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.bookings[code]
	out := make([]domain.Booking, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *JSONStore) CompleteBooking(ctx context.Context, code string, booking domain.Booking) (*domain.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[code]
	if !ok {
		return nil, ErrFlightNotFound
	}
	if f.SpotsLeft <= 0 {
		return nil, ErrNoSpotsLeft
	}

	f.SpotsLeft--
	s.flights[code] = f
	if err := writeDocument(s.flightsPath, s.flights); err != nil {
		return nil, err
	}

	s.bookings[code] = append(s.bookings[code], booking)
	if err := writeDocument(s.bookingsPath, s.bookings); err != nil {
		return nil, err
	}
	return &f, nil
}

var (
	_ CatalogStore = (*JSONStore)(nil)
	_ LedgerStore  = (*JSONStore)(nil)
)
