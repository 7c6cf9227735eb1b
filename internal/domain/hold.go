package domain

import "time"

type HoldStatus string

const (
	HoldStatusHeld      HoldStatus = "HELD"
	HoldStatusConfirmed HoldStatus = "CONFIRMED"
	HoldStatusReleased  HoldStatus = "RELEASED"
	HoldStatusExpired   HoldStatus = "EXPIRED"
)

// Hold is a provisional seat reservation. Seats are decremented from the
// flight in the same transaction that creates the hold, so every
// unavailable seat is accounted for by a HELD hold or a CONFIRMED booking.
type Hold struct {
	ID        int64
	Token     string
	FlightID  int64
	Seats     int
	Status    HoldStatus
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
