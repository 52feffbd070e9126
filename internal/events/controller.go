package events

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ticketly/internal/shared/utils/response"
)

type Controller interface {
	CreateEvent(c *gin.Context)
	GetEvent(c *gin.Context)
	UpdateEvent(c *gin.Context)
	DeleteEvent(c *gin.Context)
	GetAllEvents(c *gin.Context)
	GetMyEvents(c *gin.Context)
	GetUpcomingEvents(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateEvent(c *gin.Context) {
	var req CreateEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	// Get organizer user ID from context (set by auth middleware)
	organizerID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Organizer not authenticated", nil, nil)
		return
	}

	organizerUUID, err := uuid.Parse(organizerID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid organizer ID format", nil, nil)
		return
	}

	event, err := ctrl.service.CreateEvent(organizerUUID, req)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Event created successfully", event, nil)
}

func (ctrl *controller) GetEvent(c *gin.Context) {
	eventIDStr := c.Param("eventId")
	eventID, err := uuid.Parse(eventIDStr)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	event, err := ctrl.service.GetEventWithTickets(eventID)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrEventNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

func (ctrl *controller) UpdateEvent(c *gin.Context) {
	eventIDStr := c.Param("eventId")
	eventID, err := uuid.Parse(eventIDStr)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	organizerID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Organizer not authenticated", nil, nil)
		return
	}

	organizerUUID, err := uuid.Parse(organizerID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid organizer ID format", nil, nil)
		return
	}

	event, err := ctrl.service.UpdateEvent(eventID, organizerUUID, req)
	if err != nil {
		statusCode := http.StatusBadRequest
		switch {
		case errors.Is(err, ErrEventNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrNotOwner):
			statusCode = http.StatusForbidden
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event updated successfully", event, nil)
}

func (ctrl *controller) DeleteEvent(c *gin.Context) {
	eventIDStr := c.Param("eventId")
	eventID, err := uuid.Parse(eventIDStr)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	organizerID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Organizer not authenticated", nil, nil)
		return
	}

	organizerUUID, err := uuid.Parse(organizerID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid organizer ID format", nil, nil)
		return
	}

	err = ctrl.service.DeleteEvent(eventID, organizerUUID)
	if err != nil {
		statusCode := http.StatusBadRequest
		switch {
		case errors.Is(err, ErrEventNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(err, ErrNotOwner):
			statusCode = http.StatusForbidden
		}
		response.RespondJSON(c, "error", statusCode, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event deleted successfully", nil, nil)
}

func (ctrl *controller) GetAllEvents(c *gin.Context) {
	var query EventListQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	events, err := ctrl.service.GetAllEvents(query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", events, nil)
}

func (ctrl *controller) GetMyEvents(c *gin.Context) {
	organizerID, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Organizer not authenticated", nil, nil)
		return
	}

	organizerUUID, err := uuid.Parse(organizerID.(string))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Invalid organizer ID format", nil, nil)
		return
	}

	events, err := ctrl.service.GetMyEvents(organizerUUID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Organizer events retrieved successfully", events, nil)
}

func (ctrl *controller) GetUpcomingEvents(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 10
	}

	events, err := ctrl.service.GetUpcomingEvents(limit)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Upcoming events retrieved successfully", events, nil)
}
