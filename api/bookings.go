package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/airfare/internal/domain"
	"github.com/Domenick1991/airfare/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type cancelResponse struct {
	PNR    string `json:"pnr"`
	Status string `json:"status"`
}

type historyEntry struct {
	PNR            string `json:"pnr"`
	FlightID       int64  `json:"flight_id"`
	Route          string `json:"route"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	Passenger      string `json:"passenger"`
	SeatNumbers    string `json:"seat_numbers"`
	BookedSeats    int    `json:"booked_seats"`
	PricePaidCents int64  `json:"price_paid_cents"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/hold", h.hold)
	router.POST("/confirm", h.confirm)
	router.DELETE("/:pnr", h.cancel)
	router.GET("/history", h.history)
}

func (h *BookingHandler) hold(c *gin.Context) {
	var req booking.BeginHoldInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.service.BeginHold(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req booking.ConfirmInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	confirmation, err := h.service.Confirm(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, confirmation)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.Cancel(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cancelResponse{PNR: cancelled.PNR, Status: string(cancelled.Status)})
}

func (h *BookingHandler) history(c *gin.Context) {
	views, err := h.service.History(c.Request.Context(), booking.HistoryInput{
		PNR:   c.Query("pnr"),
		Email: c.Query("email"),
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	entries := make([]historyEntry, 0, len(views))
	for _, v := range views {
		entries = append(entries, historyEntry{
			PNR:            v.PNR,
			FlightID:       v.FlightID,
			Route:          v.Origin + "->" + v.Destination,
			DepartureTime:  v.DepartureTime.Format(time.RFC3339),
			ArrivalTime:    v.ArrivalTime.Format(time.RFC3339),
			Passenger:      v.PassengerName,
			SeatNumbers:    v.SeatNumbers,
			BookedSeats:    v.BookedSeats,
			PricePaidCents: v.PricePaidCents,
			Status:         string(v.Status),
			CreatedAt:      v.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, entries)
}

// statusFor maps domain sentinel errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrHoldNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotEnoughSeats),
		errors.Is(err, domain.ErrNotCancellable),
		errors.Is(err, domain.ErrHoldExpired):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
