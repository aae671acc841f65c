// Package session stores in-flight booking attempts. Sessions are transient:
// an attempt that idles past its TTL is discarded with no side effects.
package session

import (
	"context"
	"errors"

	"github.com/airkorea/flightdesk/internal/domain"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Create(ctx context.Context, s *domain.FlightSession) error
	Get(ctx context.Context, id string) (*domain.FlightSession, error)
	Update(ctx context.Context, s *domain.FlightSession) error
	Delete(ctx context.Context, id string) error
}
