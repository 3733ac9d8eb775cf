package api

import (
	"net/http"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TripID     string   `json:"trip_id" binding:"required"`
	SeatIDs    []string `json:"seat_ids"`
	PaymentRef string   `json:"payment_ref"`
}

type bookingResponse struct {
	ID              string   `json:"id"`
	TripID          string   `json:"trip_id"`
	RiderID         string   `json:"rider_id"`
	RiderName       string   `json:"rider_name,omitempty"`
	SeatIDs         []string `json:"seat_ids"`
	SeatLabels      []string `json:"seat_labels"`
	PassengerCount  int      `json:"passenger_count"`
	UnitPriceCents  int64    `json:"unit_price_cents"`
	TotalPriceCents int64    `json:"total_price_cents"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at"`
	CancelledAt     string   `json:"cancelled_at,omitempty"`
	CancelledByName string   `json:"cancelled_by_name,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the rider routes. The group must already authenticate.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.listMine)
	router.GET("/:id", h.get)
	router.POST("/:id/cancel", h.cancel)
}

// RegisterOperator mounts the operator routes behind RequireOperator.
func (h *BookingHandler) RegisterOperator(router *gin.RouterGroup) {
	router.Use(RequireOperator())
	router.GET("/bookings", h.listOperator)
	router.GET("/bookings/summary", h.summary)
	router.POST("/bookings/:id/cancel", h.cancelAsOperator)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.CommitBooking(c.Request.Context(), principal(c), booking.CommitBookingInput{
		TripID:     req.TripID,
		SeatIDs:    req.SeatIDs,
		PaymentRef: req.PaymentRef,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) listMine(c *gin.Context) {
	filter, ok := statusFilter(c)
	if !ok {
		return
	}
	list, err := h.service.ListForRider(c.Request.Context(), principal(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(list))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelByRider(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) listOperator(c *gin.Context) {
	filter, ok := statusFilter(c)
	if !ok {
		return
	}
	list, err := h.service.ListForOperator(c.Request.Context(), principal(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(list))
}

func (h *BookingHandler) summary(c *gin.Context) {
	s, err := h.service.OperatorSummary(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *BookingHandler) cancelAsOperator(c *gin.Context) {
	b, err := h.service.CancelByOperator(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func statusFilter(c *gin.Context) (domain.BookingFilter, bool) {
	status := domain.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "unknown status "+string(status))
		return domain.BookingFilter{}, false
	}
	return domain.BookingFilter{Status: status}, true
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:              b.ID,
		TripID:          b.TripID,
		RiderID:         b.RiderID,
		RiderName:       b.RiderName,
		SeatIDs:         b.SeatIDs,
		SeatLabels:      b.SeatLabels,
		PassengerCount:  b.PassengerCount,
		UnitPriceCents:  b.UnitPriceCents,
		TotalPriceCents: b.TotalPriceCents,
		Status:          string(b.Status),
		CreatedAt:       formatTime(b.CreatedAt),
		CancelledByName: b.CancelledByName,
	}
	if b.CancelledAt != nil {
		resp.CancelledAt = formatTime(*b.CancelledAt)
	}
	return resp
}

func toBookingResponses(list []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toBookingResponse(&list[i]))
	}
	return out
}
