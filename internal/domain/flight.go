package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusCompleted FlightStatus = "completed"
)

func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusScheduled, FlightStatusDelayed, FlightStatusCancelled, FlightStatusCompleted:
		return true
	}
	return false
}

type Flight struct {
	ID               int64           `json:"id"`
	FlightNumber     string          `json:"flight_number"`
	DepartureCity    string          `json:"departure_city"`
	ArrivalCity      string          `json:"arrival_city"`
	DepartureAirport string          `json:"departure_airport"`
	ArrivalAirport   string          `json:"arrival_airport"`
	DepartureTime    time.Time       `json:"departure_time"`
	ArrivalTime      time.Time       `json:"arrival_time"`
	TotalSeats       int             `json:"total_seats"`
	AvailableSeats   int             `json:"available_seats"`
	Price            decimal.Decimal `json:"price"`
	Status           FlightStatus    `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BookedSeats is the number of seats held by non-cancelled bookings.
func (f Flight) BookedSeats() int {
	return f.TotalSeats - f.AvailableSeats
}

// FlightSearch holds optional filters; zero values are ignored.
type FlightSearch struct {
	DepartureCity string
	ArrivalCity   string
	DepartureDate time.Time
	Passengers    int
}

// Matches reports whether f passes every filter set on s.
func (s FlightSearch) Matches(f Flight) bool {
	if s.DepartureCity != "" && !equalFold(s.DepartureCity, f.DepartureCity) {
		return false
	}
	if s.ArrivalCity != "" && !equalFold(s.ArrivalCity, f.ArrivalCity) {
		return false
	}
	if !s.DepartureDate.IsZero() {
		start, end := DayBounds(s.DepartureDate)
		if f.DepartureTime.Before(start) || !f.DepartureTime.Before(end) {
			return false
		}
	}
	if s.Passengers > 0 && f.AvailableSeats < s.Passengers {
		return false
	}
	return true
}

// DayBounds returns the UTC calendar day [start, end) containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
