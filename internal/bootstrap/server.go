package bootstrap

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/airkorea/flightdesk/api"
	"github.com/airkorea/flightdesk/config"
	"github.com/airkorea/flightdesk/internal/service/booking"
	"github.com/airkorea/flightdesk/internal/service/flights"
	"github.com/airkorea/flightdesk/internal/store"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and the catalog refresh loop, blocking until
// the context is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, flightSvc flights.FlightUseCase, st *store.JSONStore) error {
	router := NewRouter(cfg, bookingSvc, flightSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	go refreshCatalog(ctx, st, time.Duration(cfg.Refresh.IntervalSeconds)*time.Second)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// NewRouter wires the command surface: the booking flow for everyone, the
// admin panel behind the configured role.
func NewRouter(cfg *config.Config, bookingSvc booking.BookingUseCase, flightSvc flights.FlightUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authorized := router.Group("/", api.AuthRequired(cfg.Auth.JWTSecret))

	bookflight := authorized.Group("/bookflight")
	api.NewBookingHandler(bookingSvc).Register(bookflight)

	adminpanel := authorized.Group("/adminpanel", api.RequireRole(cfg.Auth.AdminRole))
	api.NewAdminHandler(flightSvc).Register(adminpanel)

	return router
}

// refreshCatalog reloads the flight catalog from disk on a fixed interval so
// edits made outside the process become visible without a restart.
func refreshCatalog(ctx context.Context, st *store.JSONStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := st.ReloadFlights(ctx); err != nil {
				log.Printf("refresh flight catalog: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
