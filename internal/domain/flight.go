package domain

import "time"

type Flight struct {
	ID             int64
	Origin         string
	Destination    string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	BasePriceCents int64
	TotalSeats     int
	AvailableSeats int
	DemandFactor   float64
	SeatCursor     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
