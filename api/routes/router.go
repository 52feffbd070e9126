// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"ticketly/internal/auth"
	"ticketly/internal/bookings"
	"ticketly/internal/events"
	"ticketly/internal/inventory"
	"ticketly/internal/notifications"
	"ticketly/internal/shared/config"
	"ticketly/internal/shared/database"
	"ticketly/internal/tickets"
	"ticketly/pkg/cache"
	"ticketly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	db           *database.DB
	log          *logger.Logger
	notification notifications.NotificationService
	cacheService cache.Service

	// eventService is shared with the tickets package for ownership checks
	eventService events.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, log *logger.Logger,
	notification notifications.NotificationService) *Router {
	return &Router{
		config:       cfg,
		db:           db,
		log:          log,
		notification: notification,
		cacheService: cache.NewService(db.GetRedisClient()),
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// Events before tickets, the ticket routes borrow the event service
		// for ownership checks
		r.setupEventRoutes(api)
		r.setupTicketRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketly-backend",
			})
			return
		}

		notificationsHealthy := true
		if r.notification != nil {
			if err := r.notification.HealthCheck(c.Request.Context()); err != nil {
				notificationsHealthy = false
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"notifications": notificationsHealthy,
			"timestamp":     time.Now(),
			"service":       "ticketly-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController)

	authRouter.SetupRoutes(rg)
}

// setupEventRoutes configures event management routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL())

	eventService := events.NewService(eventRepo, ticketRepo)
	eventService.SetCacheService(r.cacheService, r.config.Redis.CacheTTL)
	r.eventService = eventService

	eventController := events.NewController(eventService)
	events.SetupEventRoutes(rg, eventController)
}

// setupTicketRoutes configures ticket type management routes
func (r *Router) setupTicketRoutes(rg *gin.RouterGroup) {
	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL())

	ticketService := tickets.NewService(ticketRepo, r.eventService)
	ticketService.SetCacheService(r.cacheService, r.config.Redis.AvailabilityTTL)

	ticketController := tickets.NewController(ticketService)
	tickets.SetupTicketRoutes(rg, ticketController)
}

// setupBookingRoutes configures the reservation flow
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	ticketRepo := tickets.NewRepository(r.db.GetPostgreSQL())
	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	userRepo := auth.NewRepository(r.db.GetPostgreSQL())
	ledger := inventory.NewGormLedger(r.db.GetPostgreSQL(), r.log)

	bookingService := bookings.NewService(bookingRepo, ledger, ticketRepo, eventRepo, userRepo,
		r.notification, bookings.Config{
			ReminderLead: r.config.Booking.ReminderLead,
			MaxQuantity:  r.config.Booking.MaxQuantity,
		}, r.log)
	bookingService.SetCacheService(r.cacheService)

	bookingController := bookings.NewController(bookingService)
	bookings.SetupBookingRoutes(rg, bookingController)
}
