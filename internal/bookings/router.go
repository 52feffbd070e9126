package bookings

import (
	"ticketly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller Controller) {
	bookingRoutes := router.Group("/bookings")
	bookingRoutes.Use(middleware.JWTAuth(), middleware.RequireCustomer())
	{
		bookingRoutes.POST("", controller.CreateBooking)                  // POST /api/v1/bookings
		bookingRoutes.GET("", controller.GetMyBookings)                   // GET /api/v1/bookings
		bookingRoutes.GET("/:bookingId", controller.GetBooking)           // GET /api/v1/bookings/:bookingId
		bookingRoutes.POST("/:bookingId/cancel", controller.CancelBooking) // POST /api/v1/bookings/:bookingId/cancel
	}
}
