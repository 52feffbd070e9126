package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticketly/internal/events"
	"ticketly/internal/shared/config"
	"ticketly/internal/shared/database"
	"ticketly/internal/tickets"
	"ticketly/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Ticketly Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"bookings",
		"ticket_types",
		"events",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	eventIDs, err := s.SeedEvents(userIDs["organizer"])
	if err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	if err := s.SeedTicketTypes(eventIDs); err != nil {
		return fmt.Errorf("failed to seed ticket types: %w", err)
	}

	// Stale cache entries would shadow the fresh rows
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates one organizer and two customers
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"organizer", "Olivia", "Marsh", "organizer@ticketly.io", users.RoleOrganizer},
		{"customer1", "Ravi", "Patel", "ravi.patel@example.com", users.RoleCustomer},
		{"customer2", "Dana", "Kim", "dana.kim@example.com", users.RoleCustomer},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedEvents creates sample events owned by the organizer
func (s *Seeder) SeedEvents(organizerID uuid.UUID) ([]uuid.UUID, error) {
	fmt.Println("  🎪 Seeding events...")

	var eventIDs []uuid.UUID

	eventsData := []struct {
		title       string
		description string
		venue       string
		daysFromNow int
	}{
		{
			title:       "Tech Conference 2026",
			description: "Annual technology conference featuring the latest innovations and industry leaders.",
			venue:       "Tech Hub Convention Center",
			daysFromNow: 30,
		},
		{
			title:       "Classical Music Evening",
			description: "An elegant evening of classical music performed by renowned musicians.",
			venue:       "Grand Opera House",
			daysFromNow: 45,
		},
		{
			title:       "Startup Pitch Night",
			description: "Watch promising startups pitch their ideas to investors and industry experts.",
			venue:       "Innovation Center",
			daysFromNow: 15,
		},
		{
			title:       "Food & Wine Festival",
			description: "A delightful festival celebrating local cuisine and fine wines.",
			venue:       "Central Park Pavilion",
			daysFromNow: 60,
		},
	}

	for _, eventData := range eventsData {
		event := events.Event{
			ID:          uuid.New(),
			Title:       eventData.title,
			Description: eventData.description,
			Venue:       eventData.venue,
			StartTime:   time.Now().AddDate(0, 0, eventData.daysFromNow),
			OrganizerID: organizerID,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&event).Error; err != nil {
			return nil, fmt.Errorf("failed to create event %s: %w", event.Title, err)
		}

		eventIDs = append(eventIDs, event.ID)
		fmt.Printf("    ✅ Created event: %s\n", event.Title)
	}

	return eventIDs, nil
}

// SeedTicketTypes creates ticket pools for each event
func (s *Seeder) SeedTicketTypes(eventIDs []uuid.UUID) error {
	fmt.Println("  🎟️ Seeding ticket types...")

	ticketTypesData := [][]struct {
		label    string
		price    float64
		capacity int
	}{
		{
			{"VIP", 3000.0, 25},
			{"General Admission", 1500.0, 200},
		},
		{
			{"Premium", 1440.0, 40},
			{"Standard", 800.0, 120},
		},
		{
			{"Early Bird", 350.0, 50},
			{"Regular", 500.0, 150},
		},
		{
			{"Tasting Pass", 1200.0, 80},
			{"Full Experience", 1800.0, 30},
		},
	}

	for i, eventID := range eventIDs {
		for _, ttData := range ticketTypesData[i%len(ticketTypesData)] {
			ticketType := tickets.TicketType{
				ID:            uuid.New(),
				EventID:       eventID,
				Label:         ttData.label,
				Price:         ttData.price,
				TotalCapacity: ttData.capacity,
				Available:     ttData.capacity,
				CreatedAt:     time.Now(),
				UpdatedAt:     time.Now(),
			}

			if err := s.db.PostgreSQL.Create(&ticketType).Error; err != nil {
				return fmt.Errorf("failed to create ticket type %s: %w", ticketType.Label, err)
			}

			fmt.Printf("    ✅ Created ticket type: %s (%d seats)\n", ticketType.Label, ticketType.TotalCapacity)
		}
	}

	return nil
}
