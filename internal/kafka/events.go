package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventPaymentCreated   = "payment.created"
	EventPaymentUpdated   = "payment.updated"
	EventPaymentRefunded  = "payment.refunded"
	EventFlightCreated    = "flight.created"
	EventFlightUpdated    = "flight.updated"
	EventFlightDeleted    = "flight.deleted"
)

const (
	EntityBooking = "booking"
	EntityPayment = "payment"
	EntityFlight  = "flight"
)

// Event is the payload written to the events topic.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	UserID     int64     `json:"user_id,omitempty"`
	FlightID   int64     `json:"flight_id,omitempty"`
	BookingID  int64     `json:"booking_id,omitempty"`
	SeatNumber string    `json:"seat_number,omitempty"`
	Status     string    `json:"status,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key partitions events of one entity onto the same partition.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%d", e.EntityType, e.EntityID)
}

func newEvent(eventType, entityType string, entityID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
}

func BookingEvent(eventType string, b domain.Booking) Event {
	e := newEvent(eventType, EntityBooking, b.ID)
	e.UserID = b.UserID
	e.FlightID = b.FlightID
	e.BookingID = b.ID
	e.SeatNumber = b.SeatNumber
	e.Status = string(b.Status)
	e.Amount = b.TotalPrice.StringFixed(2)
	return e
}

// PaymentEvent carries the booking owner so consumers can notify them.
func PaymentEvent(eventType string, p domain.Payment, ownerID int64) Event {
	e := newEvent(eventType, EntityPayment, p.ID)
	e.UserID = ownerID
	e.BookingID = p.BookingID
	e.Status = string(p.Status)
	e.Amount = p.Amount.StringFixed(2)
	return e
}

// FlightEvent is attributed to the admin who changed the flight.
func FlightEvent(eventType string, f domain.Flight, actorID int64) Event {
	e := newEvent(eventType, EntityFlight, f.ID)
	e.UserID = actorID
	e.FlightID = f.ID
	e.Status = string(f.Status)
	return e
}

func DecodeEvent(msg kafka.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return Event{}, fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("decode event at offset %d: missing type", msg.Offset)
	}
	return e, nil
}
