package tickets

import (
	"ticketly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTicketRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - anyone can browse ticket types and availability
	public := router.Group("")
	{
		public.GET("/events/:eventId/ticket-types", controller.GetTicketTypesByEvent)
		public.GET("/ticket-types/:ticketTypeId", controller.GetTicketType)
	}

	// Organizer routes - manage ticket pools
	organizer := router.Group("/organizer")
	organizer.Use(middleware.JWTAuth(), middleware.RequireOrganizer())
	{
		organizer.POST("/events/:eventId/ticket-types", controller.CreateTicketType)
		organizer.GET("/ticket-types", controller.GetMyTicketTypes)
		organizer.PUT("/ticket-types/:ticketTypeId", controller.UpdateTicketType)
		organizer.DELETE("/ticket-types/:ticketTypeId", controller.DeleteTicketType)
	}
}
