package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/trips"
	"github.com/gin-gonic/gin"
)

type TripHandler struct {
	trips    trips.TripUseCase
	bookings booking.BookingUseCase
}

type tripResponse struct {
	ID             string `json:"id"`
	OperatorID     string `json:"operator_id"`
	OperatorName   string `json:"operator_name,omitempty"`
	Name           string `json:"name"`
	BusType        string `json:"bus_type,omitempty"`
	FromCity       string `json:"from_city"`
	ToCity         string `json:"to_city"`
	DepartureTime  string `json:"departure_time,omitempty"`
	ArrivalTime    string `json:"arrival_time,omitempty"`
	TotalSeats     int    `json:"total_seats"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type quoteRequest struct {
	SeatIDs []string `json:"seat_ids"`
}

func NewTripHandler(trips trips.TripUseCase, bookings booking.BookingUseCase) *TripHandler {
	return &TripHandler{trips: trips, bookings: bookings}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seats)
	router.POST("/:id/quote", h.quote)
}

func (h *TripHandler) list(c *gin.Context) {
	list, err := h.trips.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]tripResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTripResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

func (h *TripHandler) get(c *gin.Context) {
	trip, err := h.trips.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripResponse(*trip))
}

func (h *TripHandler) seats(c *gin.Context) {
	m, err := h.bookings.GetSeatMap(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *TripHandler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	q, err := h.bookings.Quote(c.Request.Context(), c.Param("id"), req.SeatIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func toTripResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:             t.ID,
		OperatorID:     t.OperatorID,
		OperatorName:   t.OperatorName,
		Name:           t.Name,
		BusType:        t.BusType,
		FromCity:       t.FromCity,
		ToCity:         t.ToCity,
		DepartureTime:  formatTime(t.DepartureTime),
		ArrivalTime:    formatTime(t.ArrivalTime),
		TotalSeats:     t.TotalSeats,
		UnitPriceCents: t.PriceCents,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
