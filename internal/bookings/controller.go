package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ticketly/internal/inventory"
	"ticketly/internal/shared/utils/response"
)

// Controller handles booking HTTP endpoints
type Controller interface {
	CreateBooking(c *gin.Context)
	CancelBooking(c *gin.Context)
	GetBooking(c *gin.Context)
	GetMyBookings(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// identityFromContext resolves the caller set by the JWT middleware
func identityFromContext(c *gin.Context) (Identity, bool) {
	rawID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return Identity{}, false
	}

	userID, err := uuid.Parse(rawID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Invalid user identity", nil, nil)
		return Identity{}, false
	}

	email, _ := c.Get("user_email")
	emailStr, _ := email.(string)

	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)

	return Identity{UserID: userID, Email: emailStr, Role: roleStr}, true
}

func (ctrl *controller) CreateBooking(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	booking, err := ctrl.service.Book(c.Request.Context(), identity, req)
	if err != nil {
		ctrl.respondBookingError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

func (ctrl *controller) CancelBooking(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	if err := ctrl.service.Cancel(c.Request.Context(), identity, bookingID); err != nil {
		ctrl.respondBookingError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", nil, nil)
}

func (ctrl *controller) GetBooking(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), identity, bookingID)
	if err != nil {
		ctrl.respondBookingError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (ctrl *controller) GetMyBookings(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	page := parsePositiveQuery(c, "page", 1)
	limit := parsePositiveQuery(c, "limit", 10)

	bookings, err := ctrl.service.GetUserBookings(c.Request.Context(), identity, page, limit)
	if err != nil {
		ctrl.respondBookingError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookings, nil)
}

func (ctrl *controller) respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrInsufficientInventory):
		response.RespondJSON(c, "error", http.StatusBadRequest, "Not enough tickets available", nil, err.Error())
	case errors.Is(err, inventory.ErrInvalidQuantity), errors.Is(err, ErrMaxQuantityExceeded):
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid quantity", nil, err.Error())
	case errors.Is(err, inventory.ErrTicketTypeNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, "Ticket type not found", nil, nil)
	case errors.Is(err, ErrEventNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, "Event not found", nil, nil)
	case errors.Is(err, ErrBookingNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, "Booking not found", nil, nil)
	case errors.Is(err, ErrAlreadyCancelled):
		response.RespondJSON(c, "error", http.StatusConflict, "Booking is already cancelled", nil, nil)
	case errors.Is(err, ErrNotCustomer):
		response.RespondJSON(c, "error", http.StatusForbidden, "Bookings require a customer account", nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Internal server error", nil, err.Error())
	}
}

func parsePositiveQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}
