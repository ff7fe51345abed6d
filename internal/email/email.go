// Package email turns booking and payment events into customer notifications.
// Delivery is a structured log line; the Sender is the seam for a real mailer.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log.With(zap.String("component", "email"))}
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("email: empty recipient")
	}
	s.log.Info("send email", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.String("body", msg.Body))
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Notifier e-mails the user an event belongs to. Flight events and events
// without a user are ignored.
type Notifier struct {
	users  UserLookup
	mailer Mailer
	log    *zap.Logger
}

func NewNotifier(users UserLookup, mailer Mailer, log *zap.Logger) *Notifier {
	return &Notifier{users: users, mailer: mailer, log: log.With(zap.String("component", "notifier"))}
}

func (n *Notifier) Handle(ctx context.Context, event kafka.Event) error {
	if event.UserID == 0 || (event.EntityType != kafka.EntityBooking && event.EntityType != kafka.EntityPayment) {
		return nil
	}

	user, err := n.users.GetByID(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			n.log.Warn("notification recipient missing", zap.Int64("user_id", event.UserID), zap.String("type", event.Type))
			return nil
		}
		return fmt.Errorf("lookup recipient %d: %w", event.UserID, err)
	}

	return n.mailer.Send(ctx, Compose(user.Email, event))
}

func Compose(to string, event kafka.Event) Message {
	var subject, body string
	switch event.Type {
	case kafka.EventBookingCreated:
		subject = "Booking received"
		body = fmt.Sprintf("Your booking #%d for seat %s on flight %d was received. Total: %s.", event.BookingID, event.SeatNumber, event.FlightID, event.Amount)
	case kafka.EventBookingUpdated:
		subject = "Booking updated"
		body = fmt.Sprintf("Your booking #%d is now %s.", event.BookingID, event.Status)
	case kafka.EventBookingCancelled:
		subject = "Booking cancelled"
		body = fmt.Sprintf("Your booking #%d for seat %s was cancelled.", event.BookingID, event.SeatNumber)
	case kafka.EventBookingCompleted:
		subject = "Thank you for flying with us"
		body = fmt.Sprintf("Your booking #%d is completed.", event.BookingID)
	case kafka.EventPaymentCreated:
		subject = "Payment received"
		body = fmt.Sprintf("Payment #%d of %s for booking #%d is %s.", event.EntityID, event.Amount, event.BookingID, event.Status)
	case kafka.EventPaymentUpdated:
		subject = "Payment updated"
		body = fmt.Sprintf("Payment #%d for booking #%d is now %s.", event.EntityID, event.BookingID, event.Status)
	case kafka.EventPaymentRefunded:
		subject = "Payment refunded"
		body = fmt.Sprintf("Payment #%d of %s for booking #%d was refunded.", event.EntityID, event.Amount, event.BookingID)
	default:
		subject = "Account activity"
		body = fmt.Sprintf("%s on %s #%d.", strings.ReplaceAll(event.Type, ".", " "), event.EntityType, event.EntityID)
	}
	return Message{To: to, Subject: subject, Body: body}
}
