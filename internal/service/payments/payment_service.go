package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentUseCase interface {
	CreatePayment(ctx context.Context, actor domain.Actor, input CreatePaymentInput) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, actor domain.Actor, id int64, input UpdatePaymentInput) (*domain.Payment, error)
	ProcessRefund(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error)
	GetPayment(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error)
	GetPaymentsByBooking(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.Payment, error)
	SearchPayments(ctx context.Context, actor domain.Actor, criteria domain.PaymentSearch) ([]domain.Payment, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type PaymentService struct {
	payments repository.PaymentRepository
	bookings repository.BookingRepository
	tx       repository.TxManager
	producer Producer
	topic    string
	log      *zap.Logger
}

type PaymentServiceOption func(*PaymentService)

func WithProducer(producer Producer, topic string) PaymentServiceOption {
	return func(s *PaymentService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithLogger(log *zap.Logger) PaymentServiceOption {
	return func(s *PaymentService) {
		s.log = log.With(zap.String("service", "payments"))
	}
}

func NewPaymentService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	tx repository.TxManager,
	opts ...PaymentServiceOption,
) *PaymentService {
	s := &PaymentService{
		payments: payments,
		bookings: bookings,
		tx:       tx,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreatePaymentInput struct {
	BookingID     int64                `json:"booking_id" binding:"required,min=1"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" binding:"required"`
	// Status defaults to pending; only pending and completed are accepted.
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id" binding:"omitempty,max=100"`
}

type UpdatePaymentInput struct {
	Status        *domain.PaymentStatus `json:"status"`
	PaymentMethod *domain.PaymentMethod `json:"payment_method"`
	TransactionID *string               `json:"transaction_id" binding:"omitempty,max=100"`
}

func (s *PaymentService) CreatePayment(ctx context.Context, actor domain.Actor, input CreatePaymentInput) (*domain.Payment, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if !input.PaymentMethod.Valid() {
		return nil, domain.Validation(fmt.Sprintf("Invalid payment method %q", input.PaymentMethod))
	}
	status := input.Status
	if status == "" {
		status = domain.PaymentStatusPending
	}
	if status != domain.PaymentStatusPending && status != domain.PaymentStatusCompleted {
		return nil, domain.Validation("Invalid initial payment status")
	}

	payment := &domain.Payment{
		BookingID:     input.BookingID,
		Amount:        input.Amount,
		Method:        input.PaymentMethod,
		Status:        status,
		TransactionID: input.TransactionID,
	}
	if payment.TransactionID == "" {
		payment.TransactionID = uuid.NewString()
	}

	var owner int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, input.BookingID)
		if err != nil {
			return err
		}
		if err := actor.RequireAccess(booking.UserID); err != nil {
			return err
		}
		if err := s.checkPayable(ctx, booking, payment.Amount, 0); err != nil {
			return err
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return mapCompletedConflict(err)
		}
		owner = booking.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment created",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("booking_id", payment.BookingID),
		zap.String("status", string(payment.Status)))
	s.publish(ctx, kafka.EventPaymentCreated, payment, owner)
	return payment, nil
}

func (s *PaymentService) UpdatePayment(ctx context.Context, actor domain.Actor, id int64, input UpdatePaymentInput) (*domain.Payment, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	var (
		updated *domain.Payment
		owner   int64
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockPayment(ctx, id)
		if err != nil {
			return err
		}
		switch current.Status {
		case domain.PaymentStatusCompleted:
			return domain.Validation("Cannot update completed payment")
		case domain.PaymentStatusFailed:
			return domain.Validation("Cannot update failed payment")
		case domain.PaymentStatusRefunded:
			return domain.Validation("Cannot update refunded payment")
		}

		next := *current
		if input.PaymentMethod != nil {
			if !input.PaymentMethod.Valid() {
				return domain.Validation(fmt.Sprintf("Invalid payment method %q", *input.PaymentMethod))
			}
			next.Method = *input.PaymentMethod
		}
		if input.TransactionID != nil {
			next.TransactionID = *input.TransactionID
		}
		if input.Status != nil && *input.Status != current.Status {
			if !current.Status.CanTransitionTo(*input.Status) {
				return domain.Validation(fmt.Sprintf("Invalid payment status transition from %s to %s", current.Status, *input.Status))
			}
			next.Status = *input.Status
		}

		booking, err := s.lockBooking(ctx, current.BookingID)
		if err != nil {
			return err
		}
		if next.Status == domain.PaymentStatusCompleted {
			if err := s.checkPayable(ctx, booking, next.Amount, id); err != nil {
				return err
			}
		}

		if err := s.payments.Update(ctx, &next); err != nil {
			return mapCompletedConflict(err)
		}
		updated = &next
		owner = booking.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment updated", zap.Int64("payment_id", id), zap.String("status", string(updated.Status)))
	s.publish(ctx, kafka.EventPaymentUpdated, updated, owner)
	return updated, nil
}

func (s *PaymentService) ProcessRefund(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}

	var (
		refunded *domain.Payment
		owner    int64
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		payment, err := s.lockPayment(ctx, id)
		if err != nil {
			return err
		}
		booking, err := s.lockBooking(ctx, payment.BookingID)
		if err != nil {
			return err
		}
		if err := actor.RequireAccess(booking.UserID); err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusCompleted {
			return domain.Validation("Only completed payments can be refunded")
		}
		if booking.Status != domain.BookingStatusCancelled {
			return domain.Validation("Only cancelled bookings can be refunded")
		}

		payment.Status = domain.PaymentStatusRefunded
		if err := s.payments.Update(ctx, payment); err != nil {
			return err
		}
		refunded = payment
		owner = booking.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment refunded", zap.Int64("payment_id", id), zap.Int64("booking_id", refunded.BookingID))
	s.publish(ctx, kafka.EventPaymentRefunded, refunded, owner)
	return refunded, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "Payment not found")
	}
	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, mapNotFound(err, "Booking not found")
	}
	if err := actor.RequireAccess(booking.UserID); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) GetPaymentsByBooking(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.Payment, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, mapNotFound(err, "Booking not found")
	}
	if err := actor.RequireAccess(booking.UserID); err != nil {
		return nil, err
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

// SearchPayments applies the first criterion present: booking, status, then
// a complete date range.
func (s *PaymentService) SearchPayments(ctx context.Context, actor domain.Actor, criteria domain.PaymentSearch) ([]domain.Payment, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	switch {
	case criteria.BookingID != 0:
		return s.payments.ListByBooking(ctx, criteria.BookingID)
	case criteria.Status != "":
		if !criteria.Status.Valid() {
			return nil, domain.Validation(fmt.Sprintf("Invalid payment status %q", criteria.Status))
		}
		return s.payments.ListByStatus(ctx, criteria.Status)
	case !criteria.StartDate.IsZero() && !criteria.EndDate.IsZero():
		return s.payments.ListByDateRange(ctx, criteria.StartDate, criteria.EndDate)
	}
	return []domain.Payment{}, nil
}

// checkPayable holds the rules a payment must meet when it is created or
// completed.
func (s *PaymentService) checkPayable(ctx context.Context, booking *domain.Booking, amount decimal.Decimal, paymentID int64) error {
	if booking.Status == domain.BookingStatusCancelled {
		return domain.Validation("Cannot process payment for cancelled booking")
	}
	exists, err := s.payments.HasCompleted(ctx, booking.ID, paymentID)
	if err != nil {
		return err
	}
	if exists {
		return domain.Validation("Payment already exists for this booking")
	}
	if !amount.Equal(booking.TotalPrice) {
		return domain.Validation("Payment amount does not match booking total")
	}
	return nil
}

func (s *PaymentService) lockBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "Booking not found")
	}
	return booking, nil
}

func (s *PaymentService) lockPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.payments.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "Payment not found")
	}
	return payment, nil
}

func (s *PaymentService) publish(ctx context.Context, eventType string, payment *domain.Payment, owner int64) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.PaymentEvent(eventType, *payment, owner)
	if err := s.producer.Publish(context.WithoutCancel(ctx), s.topic, event.Key(), event); err != nil {
		s.log.Warn("publish event failed", zap.String("type", eventType), zap.Int64("payment_id", payment.ID), zap.Error(err))
	}
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(msg)
	}
	return err
}

func mapCompletedConflict(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return domain.Conflict("Payment already exists for this booking")
	}
	return err
}

var _ PaymentUseCase = (*PaymentService)(nil)
