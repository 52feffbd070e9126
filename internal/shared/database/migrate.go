package database

import (
	"ticketly/internal/bookings"
	"ticketly/internal/events"
	"ticketly/internal/tickets"
	"ticketly/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&tickets.TicketType{},
		&bookings.Booking{},
	)
}
