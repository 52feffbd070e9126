package tickets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ticketly/internal/shared/utils/response"
)

type Controller interface {
	CreateTicketType(c *gin.Context)
	GetTicketType(c *gin.Context)
	GetTicketTypesByEvent(c *gin.Context)
	GetMyTicketTypes(c *gin.Context)
	UpdateTicketType(c *gin.Context)
	DeleteTicketType(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateTicketType(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	var req CreateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	organizerUUID, ok := organizerFromContext(c)
	if !ok {
		return
	}

	ticketType, err := ctrl.service.CreateTicketType(eventID, organizerUUID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Ticket type created successfully", ticketType, nil)
}

func (ctrl *controller) GetTicketType(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("ticketTypeId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid ticket type ID", nil, err.Error())
		return
	}

	ticketType, err := ctrl.service.GetTicketType(ticketTypeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket type retrieved successfully", ticketType, nil)
}

func (ctrl *controller) GetTicketTypesByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	ticketTypes, err := ctrl.service.GetTicketTypesByEvent(eventID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket types retrieved successfully", ticketTypes, nil)
}

func (ctrl *controller) GetMyTicketTypes(c *gin.Context) {
	organizerUUID, ok := organizerFromContext(c)
	if !ok {
		return
	}

	ticketTypes, err := ctrl.service.GetMyTicketTypes(organizerUUID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket types retrieved successfully", ticketTypes, nil)
}

func (ctrl *controller) UpdateTicketType(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("ticketTypeId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid ticket type ID", nil, err.Error())
		return
	}

	var req UpdateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	organizerUUID, ok := organizerFromContext(c)
	if !ok {
		return
	}

	ticketType, err := ctrl.service.UpdateTicketType(ticketTypeID, organizerUUID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket type updated successfully", ticketType, nil)
}

func (ctrl *controller) DeleteTicketType(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("ticketTypeId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid ticket type ID", nil, err.Error())
		return
	}

	organizerUUID, ok := organizerFromContext(c)
	if !ok {
		return
	}

	if err := ctrl.service.DeleteTicketType(ticketTypeID, organizerUUID); err != nil {
		respondServiceError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket type deleted successfully", nil, nil)
}

func organizerFromContext(c *gin.Context) (uuid.UUID, bool) {
	organizerID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Organizer not authenticated", nil, nil)
		return uuid.Nil, false
	}

	organizerUUID, err := uuid.Parse(organizerID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid organizer ID format", nil, nil)
		return uuid.Nil, false
	}

	return organizerUUID, true
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTicketTypeNotFound), errors.Is(err, ErrEventNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
	case errors.Is(err, ErrNotOwner):
		response.RespondJSON(c, "error", http.StatusForbidden, err.Error(), nil, nil)
	case errors.Is(err, ErrHasActiveBookings):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
	}
}
