package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightreservation/config"
	"github.com/Domenick1991/flightreservation/internal/bootstrap"
	"github.com/Domenick1991/flightreservation/internal/cache"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/logger"
	"go.uber.org/zap"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStorage(ctx, cfg.Database, lg)
	if err != nil {
		lg.Fatal("open storage", zap.Error(err))
	}
	defer store.Close()

	var deps bootstrap.Dependencies
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheTTL())
		if err := redisCache.Ping(ctx); err != nil {
			lg.Warn("redis unavailable, continuing without cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			redisCache.Close()
		} else {
			defer redisCache.Close()
			deps.Cache = redisCache
		}
	}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, lg)
		if err := producer.CheckConnection(ctx); err != nil {
			lg.Warn("kafka unreachable at startup", zap.Strings("brokers", cfg.Kafka.Brokers), zap.Error(err))
		}
		defer producer.Close()
		deps.Producer = producer
	}

	services := bootstrap.NewServiceSet(cfg, store, deps, lg)

	lg.Info("starting",
		zap.String("http", cfg.HTTP.Address),
		zap.String("grpc", cfg.GRPC.Address),
		zap.String("driver", cfg.Database.Driver),
	)
	if err := bootstrap.Run(ctx, cfg, services.API(), services.Tokens, lg); err != nil {
		lg.Fatal("server error", zap.Error(err))
	}
	lg.Info("stopped")
}
