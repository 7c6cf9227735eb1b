package domain

import "errors"

var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrHoldNotFound    = errors.New("hold not found")
)

var (
	ErrNotEnoughSeats  = errors.New("not enough seats available")
	ErrHoldExpired     = errors.New("hold has expired")
	ErrNotCancellable  = errors.New("booking is not cancellable")
	ErrPaymentDeclined = errors.New("payment declined")
	ErrPNRTaken        = errors.New("pnr already taken")
)

var (
	ErrValidation = errors.New("validation error")
)
