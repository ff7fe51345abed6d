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

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	// HasCompleted reports whether the booking has a completed payment other than excludeID.
	HasCompleted(ctx context.Context, bookingID, excludeID int64) (bool, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Payment, error)
}

const paymentColumns = `id, booking_id, amount, payment_method, status, COALESCE(transaction_id, ''), created_at`

type PGPaymentRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewPaymentRepository(db *pgxpool.Pool, log *zap.Logger) PaymentRepository {
	return &PGPaymentRepository{db: db, log: log.With(zap.String("repository", "payment"))}
}

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO payment_transactions (booking_id, amount, payment_method, status, transaction_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at`,
		p.BookingID, p.Amount, p.Method, p.Status, p.TransactionID).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		r.log.Error("create payment failed", zap.Int64("booking_id", p.BookingID), zap.Error(err))
		return fmt.Errorf("create payment: %w", mapError(err))
	}
	return nil
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payment_transactions WHERE id=$1`, id)
}

func (r *PGPaymentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payment_transactions WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGPaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `UPDATE payment_transactions
		SET amount=$2, payment_method=$3, status=$4, transaction_id=NULLIF($5, '')
		WHERE id=$1`,
		p.ID, p.Amount, p.Method, p.Status, p.TransactionID)
	if err != nil {
		return fmt.Errorf("update payment %d: %w", p.ID, mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGPaymentRepository) HasCompleted(ctx context.Context, bookingID, excludeID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM payment_transactions WHERE booking_id=$1 AND status=$2 AND id <> $3)`,
		bookingID, domain.PaymentStatusCompleted, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check completed payment: %w", mapError(err))
	}
	return exists, nil
}

func (r *PGPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payment_transactions WHERE booking_id=$1 ORDER BY created_at DESC, id DESC`, bookingID)
}

func (r *PGPaymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payment_transactions WHERE status=$1 ORDER BY created_at DESC, id DESC`, status)
}

func (r *PGPaymentRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payment_transactions WHERE created_at BETWEEN $1 AND $2 ORDER BY created_at DESC, id DESC`, start, end)
}

func (r *PGPaymentRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Payment, error) {
	p, err := scanPayment(conn(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *PGPaymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("list payments failed", zap.Error(err))
		return nil, fmt.Errorf("list payments: %w", mapError(err))
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.TransactionID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
