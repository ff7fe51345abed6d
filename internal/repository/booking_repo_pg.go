package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	// FindActiveBySeat returns the non-cancelled booking holding seat on the flight.
	FindActiveBySeat(ctx context.Context, flightID int64, seat string) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Booking, error)
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error)
	CountActiveByFlight(ctx context.Context, flightID int64) (int, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	// CompleteConfirmed moves confirmed bookings of the given flights to completed.
	CompleteConfirmed(ctx context.Context, flightIDs []int64) ([]domain.Booking, error)
}

const bookingColumns = `id, user_id, flight_id, booking_date, seat_number, status, total_price, created_at, updated_at`

type PGBookingRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewBookingRepository(db *pgxpool.Pool, log *zap.Logger) BookingRepository {
	return &PGBookingRepository{db: db, log: log.With(zap.String("repository", "booking"))}
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO bookings (user_id, flight_id, booking_date, seat_number, status, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		b.UserID, b.FlightID, b.BookingDate, b.SeatNumber, b.Status, b.TotalPrice).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		r.log.Error("create booking failed",
			zap.Int64("flight_id", b.FlightID),
			zap.String("seat_number", b.SeatNumber),
			zap.Error(err))
		return fmt.Errorf("create booking: %w", mapError(err))
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGBookingRepository) FindActiveBySeat(ctx context.Context, flightID int64, seat string) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE flight_id=$1 AND seat_number=$2 AND status <> $3
		LIMIT 1`, flightID, seat, domain.BookingStatusCancelled)
}

func (r *PGBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE bookings SET booking_date=$2, seat_number=$3, status=$4, total_price=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		b.ID, b.BookingDate, b.SeatNumber, b.Status, b.TotalPrice).
		Scan(&b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update booking %d: %w", b.ID, mapError(err))
	}
	return nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY booking_date DESC, id DESC`, userID)
}

func (r *PGBookingRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_id=$1 ORDER BY booking_date DESC, id DESC`, flightID)
}

func (r *PGBookingRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_date BETWEEN $1 AND $2 ORDER BY booking_date DESC, id DESC`, start, end)
}

func (r *PGBookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status=$1 ORDER BY booking_date DESC, id DESC`, status)
}

func (r *PGBookingRepository) CountActiveByFlight(ctx context.Context, flightID int64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM bookings WHERE flight_id=$1 AND status <> $2`,
		flightID, domain.BookingStatusCancelled).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count flight bookings: %w", mapError(err))
	}
	return n, nil
}

func (r *PGBookingRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM bookings WHERE user_id=$1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count user bookings: %w", mapError(err))
	}
	return n, nil
}

func (r *PGBookingRepository) CompleteConfirmed(ctx context.Context, flightIDs []int64) ([]domain.Booking, error) {
	if len(flightIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE flight_id = ANY($2) AND status=$3
		RETURNING `+bookingColumns,
		domain.BookingStatusCompleted, flightIDs, domain.BookingStatusConfirmed)
}

func (r *PGBookingRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(conn(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *PGBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("list bookings failed", zap.Error(err))
		return nil, fmt.Errorf("list bookings: %w", mapError(err))
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.FlightID, &b.BookingDate, &b.SeatNumber, &b.Status, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
