package events

import (
	"ticketly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - anyone can browse events
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.GetAllEvents)               // GET /api/v1/events
		publicEvents.GET("/upcoming", controller.GetUpcomingEvents) // GET /api/v1/events/upcoming
		publicEvents.GET("/:eventId", controller.GetEvent)          // GET /api/v1/events/:eventId
	}

	// Organizer routes - create, update, delete
	organizerEvents := router.Group("/organizer/events")
	organizerEvents.Use(middleware.JWTAuth(), middleware.RequireOrganizer())
	{
		organizerEvents.POST("", controller.CreateEvent)            // POST /api/v1/organizer/events
		organizerEvents.GET("", controller.GetMyEvents)             // GET /api/v1/organizer/events
		organizerEvents.PUT("/:eventId", controller.UpdateEvent)    // PUT /api/v1/organizer/events/:eventId
		organizerEvents.DELETE("/:eventId", controller.DeleteEvent) // DELETE /api/v1/organizer/events/:eventId
	}
}
