package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	// GetByIDForUpdate locks the flight row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Flight, error)
	GetByNumber(ctx context.Context, number string) (*domain.Flight, error)
	Update(ctx context.Context, flight *domain.Flight) error
	SetAvailableSeats(ctx context.Context, id int64, available int) (*domain.Flight, error)
	// Delete removes the flight together with its bookings and their payments.
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, criteria domain.FlightSearch) ([]domain.Flight, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]domain.Flight, error)
	ListByStatus(ctx context.Context, status domain.FlightStatus) ([]domain.Flight, error)
	// CompleteArrived marks scheduled or delayed flights that arrived by now as completed.
	CompleteArrived(ctx context.Context, now time.Time) ([]domain.Flight, error)
}

const flightColumns = `id, flight_number, departure_city, arrival_city, departure_airport, arrival_airport,
	departure_time, arrival_time, total_seats, available_seats, price, status, created_at, updated_at`

type PGFlightRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewFlightRepository(db *pgxpool.Pool, log *zap.Logger) FlightRepository {
	return &PGFlightRepository{db: db, log: log.With(zap.String("repository", "flight"))}
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO flights (flight_number, departure_city, arrival_city, departure_airport,
		arrival_airport, departure_time, arrival_time, total_seats, available_seats, price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		f.FlightNumber, f.DepartureCity, f.ArrivalCity, f.DepartureAirport, f.ArrivalAirport,
		f.DepartureTime, f.ArrivalTime, f.TotalSeats, f.AvailableSeats, f.Price, f.Status).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		r.log.Error("create flight failed", zap.String("flight_number", f.FlightNumber), zap.Error(err))
		return fmt.Errorf("create flight %s: %w", f.FlightNumber, mapError(err))
	}
	return nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return r.getOne(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
}

func (r *PGFlightRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Flight, error) {
	return r.getOne(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGFlightRepository) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	return r.getOne(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_number=$1`, number)
}

func (r *PGFlightRepository) Update(ctx context.Context, f *domain.Flight) error {
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE flights SET flight_number=$2, departure_city=$3, arrival_city=$4,
		departure_airport=$5, arrival_airport=$6, departure_time=$7, arrival_time=$8, total_seats=$9,
		price=$10, status=$11, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		f.ID, f.FlightNumber, f.DepartureCity, f.ArrivalCity, f.DepartureAirport, f.ArrivalAirport,
		f.DepartureTime, f.ArrivalTime, f.TotalSeats, f.Price, f.Status).
		Scan(&f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update flight %d: %w", f.ID, mapError(err))
	}
	return nil
}

func (r *PGFlightRepository) SetAvailableSeats(ctx context.Context, id int64, available int) (*domain.Flight, error) {
	return r.getOne(ctx, `UPDATE flights SET available_seats=$2, updated_at=now() WHERE id=$1 RETURNING `+flightColumns, id, available)
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		r.log.Error("delete flight failed", zap.Int64("flight_id", id), zap.Error(err))
		return fmt.Errorf("delete flight %d: %w", id, mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGFlightRepository) Search(ctx context.Context, criteria domain.FlightSearch) ([]domain.Flight, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if c := strings.TrimSpace(criteria.DepartureCity); c != "" {
		add("lower(departure_city) = lower($%d)", c)
	}
	if c := strings.TrimSpace(criteria.ArrivalCity); c != "" {
		add("lower(arrival_city) = lower($%d)", c)
	}
	if !criteria.DepartureDate.IsZero() {
		start, end := domain.DayBounds(criteria.DepartureDate)
		add("departure_time >= $%d", start)
		add("departure_time < $%d", end)
	}
	if criteria.Passengers > 0 {
		add("available_seats >= $%d", criteria.Passengers)
	}

	query := `SELECT ` + flightColumns + ` FROM flights`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY departure_time, id`
	return r.list(ctx, query, args...)
}

func (r *PGFlightRepository) ListUpcoming(ctx context.Context, now time.Time) ([]domain.Flight, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flights WHERE departure_time > $1 ORDER BY departure_time, id`, now)
}

func (r *PGFlightRepository) ListByStatus(ctx context.Context, status domain.FlightStatus) ([]domain.Flight, error) {
	return r.list(ctx, `SELECT `+flightColumns+` FROM flights WHERE status=$1 ORDER BY departure_time, id`, status)
}

func (r *PGFlightRepository) CompleteArrived(ctx context.Context, now time.Time) ([]domain.Flight, error) {
	return r.list(ctx, `UPDATE flights SET status=$1, updated_at=now()
		WHERE arrival_time <= $2 AND status IN ($3, $4)
		RETURNING `+flightColumns,
		domain.FlightStatusCompleted, now, domain.FlightStatusScheduled, domain.FlightStatusDelayed)
}

func (r *PGFlightRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Flight, error) {
	f, err := scanFlight(conn(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return f, nil
}

func (r *PGFlightRepository) list(ctx context.Context, query string, args ...any) ([]domain.Flight, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("list flights failed", zap.Error(err))
		return nil, fmt.Errorf("list flights: %w", mapError(err))
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.DepartureCity, &f.ArrivalCity, &f.DepartureAirport, &f.ArrivalAirport,
		&f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.Price, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
