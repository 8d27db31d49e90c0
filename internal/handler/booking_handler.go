// Package handler exposes the booking engine over HTTP with gin. Handlers
// parse and validate transport concerns only; all business rules live in the
// application services.
package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rentaride/service-booking/internal/application"
	bookingDomain "github.com/rentaride/service-booking/internal/domain/booking"
	"github.com/rentaride/service-booking/pkg/response"
)

// BookingHandler handles HTTP requests for reservations and bookings.
type BookingHandler struct {
	reservations *application.ReservationService
	bookings     *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(reservations *application.ReservationService, bookings *application.BookingService) *BookingHandler {
	return &BookingHandler{reservations: reservations, bookings: bookings}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.ReserveVehicle)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/status", h.UpdateBookingStatus)
		bookings.PATCH("/:id/payment", h.UpdatePaymentStatus)
	}

	users := r.Group("/users")
	{
		users.GET("/:id/bookings", h.ListUserBookings)
		users.GET("/:id/rewards", h.RewardHistory)
	}

	vehicles := r.Group("/vehicles")
	{
		vehicles.GET("/:id/availability", h.CheckAvailability)
		vehicles.GET("/:id/booked-dates", h.GetBookedDates)
	}
}

// ReserveVehicle handles POST /api/v1/bookings
func (h *BookingHandler) ReserveVehicle(c *gin.Context) {
	var req application.ReserveVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	view, err := h.reservations.ReserveVehicle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, view)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	view, err := h.bookings.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// UpdateBookingStatus handles PATCH /api/v1/bookings/:id/status
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req application.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	view, err := h.bookings.UpdateBookingStatus(c.Request.Context(), bookingID, bookingDomain.Status(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// UpdatePaymentStatus handles PATCH /api/v1/bookings/:id/payment
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req application.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	view, err := h.bookings.UpdatePaymentStatus(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// ListUserBookings handles GET /api/v1/users/:id/bookings
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	views, err := h.bookings.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, views)
}

// RewardHistory handles GET /api/v1/users/:id/rewards
func (h *BookingHandler) RewardHistory(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	entries, err := h.bookings.RewardHistory(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entries)
}

// CheckAvailability handles GET /api/v1/vehicles/:id/availability
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.BadRequest(c, "invalid start date (use RFC3339)")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.BadRequest(c, "invalid end date (use RFC3339)")
		return
	}

	available, err := h.bookings.IsAvailable(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"vehicle_id": vehicleID, "available": available})
}

// GetBookedDates handles GET /api/v1/vehicles/:id/booked-dates
func (h *BookingHandler) GetBookedDates(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	dates, err := h.bookings.GetBookedDates(c.Request.Context(), vehicleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dates)
}
