package pricing

import (
	"math"
	"time"
)

// Fare computes the dynamic per-seat price in cents for a flight.
//
// The multiplier stacks three factors: a step function on hours to
// departure, a convex curve on remaining availability and a linear demand
// factor. When fewer than 5% of seats remain an extra scarcity surcharge
// is applied on top of the availability curve. The result is rounded
// half-up and never falls below the base price.
//
// now is injected so callers control the clock; given identical inputs
// the function is deterministic.
func Fare(basePriceCents int64, totalSeats, seatsAvailable int, departure time.Time, demandLevel float64, now time.Time) int64 {
	if totalSeats <= 0 {
		totalSeats = 1
	}
	if seatsAvailable < 0 {
		seatsAvailable = 0
	}
	if demandLevel < 0 {
		demandLevel = 0
	}
	if demandLevel > 1 {
		demandLevel = 1
	}

	hoursToDeparture := departure.Sub(now).Hours()
	if hoursToDeparture < 0 {
		hoursToDeparture = 0
	}
	remainingPct := float64(seatsAvailable) / float64(totalSeats)

	var timeMult float64
	switch {
	case hoursToDeparture > 168:
		timeMult = 1.0
	case hoursToDeparture > 72:
		timeMult = 1.05
	case hoursToDeparture > 24:
		timeMult = 1.20
	case hoursToDeparture > 6:
		timeMult = 1.5
	default:
		timeMult = 2.0
	}

	availabilityMult := 1.0 + (1.0-remainingPct)*(1.0-remainingPct)*2.0
	demandMult := 0.9 + demandLevel*1.1

	multiplier := timeMult * availabilityMult * demandMult
	if remainingPct < 0.05 {
		multiplier *= 1.25
	}

	// Prices are integer cents, so half-up rounding to two decimal
	// places is plain half-up rounding of the product.
	fare := int64(math.Floor(float64(basePriceCents)*multiplier + 0.5))
	if fare < basePriceCents {
		fare = basePriceCents
	}
	return fare
}
