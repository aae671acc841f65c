package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airkorea/flightdesk/config"
	"github.com/airkorea/flightdesk/internal/bootstrap"
	"github.com/airkorea/flightdesk/internal/kafka"
	"github.com/airkorea/flightdesk/internal/messenger"
	"github.com/airkorea/flightdesk/internal/roblox"
	"github.com/airkorea/flightdesk/internal/service/booking"
	"github.com/airkorea/flightdesk/internal/service/flights"
	"github.com/airkorea/flightdesk/internal/session"
	"github.com/airkorea/flightdesk/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	token, err := config.BotToken()
	if err != nil {
		log.Fatalf("load credentials: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Storage.FlightsFile, cfg.Storage.BookingsFile)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	sessionTTL := time.Duration(cfg.Session.TTLSeconds) * time.Second
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		sessions = session.NewRedisStore(cfg.Redis, sessionTTL)
	default:
		memory := session.NewMemoryStore(sessionTTL)
		memory.StartJanitor(ctx, sessionTTL)
		sessions = memory
	}

	robloxOpts := []roblox.Option{
		roblox.WithMode(roblox.Mode(cfg.Validation.Mode)),
		roblox.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Roblox.TimeoutSeconds) * time.Second}),
	}
	if cfg.Roblox.BaseURL != "" {
		robloxOpts = append(robloxOpts, roblox.WithBaseURL(cfg.Roblox.BaseURL))
	}
	validator := roblox.NewClient(robloxOpts...)

	sender := messenger.NewClient(cfg.Gateway.BaseURL, token)

	bookingOpts := []booking.BookingServiceOption{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	bookingService := booking.NewBookingService(st, st, sessions, validator, sender, bookingOpts...)
	flightService := flights.NewFlightService(st, st)

	if err := bootstrap.Run(ctx, cfg, bookingService, flightService, st); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
