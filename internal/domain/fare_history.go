package domain

import "time"

// FareHistory is an append-only snapshot of a fare actually quoted to a
// caller, together with the availability it was computed from.
type FareHistory struct {
	ID             int64
	FlightID       int64
	FareCents      int64
	SeatsAvailable int
	CreatedAt      time.Time
}
