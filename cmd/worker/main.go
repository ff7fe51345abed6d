package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightreservation/config"
	"github.com/Domenick1991/flightreservation/internal/audit"
	"github.com/Domenick1991/flightreservation/internal/bootstrap"
	"github.com/Domenick1991/flightreservation/internal/email"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/logger"
	"github.com/Domenick1991/flightreservation/internal/service/booking"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Path, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Sync()
	lg = lg.With(zap.String("process", "worker"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStorage(ctx, cfg.Database, lg)
	if err != nil {
		lg.Fatal("open storage", zap.Error(err))
	}
	defer store.Close()
	if cfg.Database.Driver == config.DriverMemory {
		lg.Warn("worker uses its own in-memory store; it will not see the API's data")
	}

	var deps bootstrap.Dependencies
	if cfg.Kafka.Enabled() {
		deps.Producer = kafka.NewProducer(cfg.Kafka.Brokers, lg)
		defer deps.Producer.Close()
	}
	services := bootstrap.NewServiceSet(cfg, store, deps, lg)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.EventsTopic, lg)
		defer consumer.Close()

		handler := kafka.Chain(
			audit.NewRecorder(store.AuditLogs, lg).Handle,
			email.NewNotifier(store.Users, email.NewSender(lg), lg).Handle,
		)
		g.Go(func() error {
			lg.Info("consuming events", zap.String("topic", cfg.Kafka.EventsTopic), zap.String("group", cfg.Kafka.GroupID))
			return consumer.Consume(ctx, handler)
		})
	} else {
		lg.Warn("kafka disabled, audit and email notifications are off")
	}

	g.Go(func() error {
		sweep(ctx, services.Bookings, cfg.Worker.CompletionSweep(), lg)
		return nil
	})

	if err := g.Wait(); err != nil {
		lg.Fatal("worker stopped", zap.Error(err))
	}
	lg.Info("stopped")
}

// sweep completes confirmed bookings of arrived flights on every tick.
func sweep(ctx context.Context, bookings *booking.BookingService, every time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			completed, err := bookings.CompleteArrivedFlights(ctx)
			if err != nil {
				lg.Error("complete arrived flights", zap.Error(err))
				continue
			}
			if len(completed) > 0 {
				lg.Info("completed bookings", zap.Int("count", len(completed)))
			}
		}
	}
}
