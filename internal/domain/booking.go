package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID             int64
	PNR            string
	FlightID       int64
	PassengerID    int64
	SeatNumbers    string
	BookedSeats    int
	PricePaidCents int64
	Status         BookingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookingView is the denormalized read model returned by history lookups.
type BookingView struct {
	PNR            string
	FlightID       int64
	Origin         string
	Destination    string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	PassengerName  string
	SeatNumbers    string
	BookedSeats    int
	PricePaidCents int64
	Status         BookingStatus
	CreatedAt      time.Time
}
