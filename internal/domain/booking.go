package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	FlightID    int64           `json:"flight_id"`
	BookingDate time.Time       `json:"booking_date"`
	SeatNumber  string          `json:"seat_number"`
	Status      BookingStatus   `json:"status"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HoldsSeat reports whether the booking occupies its seat.
func (b Booking) HoldsSeat() bool {
	return b.Status != BookingStatusCancelled
}

// BookingSearch selects bookings by the first criterion present, in field order.
type BookingSearch struct {
	UserID    int64
	FlightID  int64
	StartDate time.Time
	EndDate   time.Time
	Status    BookingStatus
}

// NormalizeSeat canonicalises a seat label so "1a" and " 1A" name the same seat.
func NormalizeSeat(seat string) string {
	return strings.ToUpper(strings.TrimSpace(seat))
}
