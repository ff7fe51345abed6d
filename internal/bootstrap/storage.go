package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightreservation/config"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"github.com/Domenick1991/flightreservation/internal/repository/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Storage groups the repositories of one backend and the transaction manager
// that spans them.
type Storage struct {
	Flights   repository.FlightRepository
	Bookings  repository.BookingRepository
	Payments  repository.PaymentRepository
	Users     repository.UserRepository
	AuditLogs repository.AuditLogRepository
	Tx        repository.TxManager

	close func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

func OpenStorage(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Info("using in-memory storage")
		return MemoryStorage(memory.NewStore()), nil
	case config.DriverPostgres:
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("connected to postgres", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
		return &Storage{
			Flights:   repository.NewFlightRepository(pool, log),
			Bookings:  repository.NewBookingRepository(pool, log),
			Payments:  repository.NewPaymentRepository(pool, log),
			Users:     repository.NewUserRepository(pool, log),
			AuditLogs: repository.NewAuditLogRepository(pool, log),
			Tx:        repository.NewTxManager(pool),
			close:     pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func MemoryStorage(store *memory.Store) *Storage {
	return &Storage{
		Flights:   store.Flights(),
		Bookings:  store.Bookings(),
		Payments:  store.Payments(),
		Users:     store.Users(),
		AuditLogs: store.AuditLogs(),
		Tx:        store,
	}
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
