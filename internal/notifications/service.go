package notifications

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticketly/internal/shared/config"
)

// NotificationService is the dispatcher facade. Publishing is fire-and-forget
// from the caller's point of view; delivery failures stay inside the pipeline.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, userID uuid.UUID, email, name string,
		bookingID, eventID uuid.UUID, eventTitle, bookingRef string, quantity int, totalPrice float64) error

	ScheduleEventReminder(ctx context.Context, userID uuid.UUID, email, name string,
		bookingID, eventID uuid.UUID, eventTitle, venue string, eventTime, fireAt time.Time) error

	Start(ctx context.Context) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

type EmailNotificationService struct {
	config       *config.Config
	producer     NotificationProducer
	consumer     NotificationConsumer
	emailService EmailService

	// State
	isRunning bool
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewEmailNotificationService(cfg *config.Config) (NotificationService, error) {
	var emailService EmailService
	if cfg.Email.SMTPHost == "" {
		// No SMTP configured, deliveries are logged instead of sent
		emailService = NewMockEmailService()
	} else {
		smtpService, err := NewSMTPEmailService(NewSMTPConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create SMTP email service: %w", err)
		}
		emailService = smtpService
	}

	// Create producer
	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = cfg.Kafka.Brokers
	producerConfig.NotificationTopic = cfg.Kafka.NotificationTopic
	producerConfig.ScheduledTopic = cfg.Kafka.ScheduledTopic

	producer, err := NewKafkaNotificationProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	// Create consumer
	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = cfg.Kafka.Brokers
	consumerConfig.Topics = []string{cfg.Kafka.NotificationTopic, cfg.Kafka.ScheduledTopic}
	consumerConfig.GroupID = cfg.Kafka.ConsumerGroupID

	consumer, err := NewKafkaNotificationConsumer(consumerConfig, emailService)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	log.Printf("📧 Email notification service initialized (SMTP host: %s)", cfg.Email.SMTPHost)

	return &EmailNotificationService{
		config:       cfg,
		producer:     producer,
		consumer:     consumer,
		emailService: emailService,
		isRunning:    false,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

func (ens *EmailNotificationService) Start(ctx context.Context) error {
	ens.mu.Lock()
	defer ens.mu.Unlock()

	if ens.isRunning {
		return fmt.Errorf("notification service is already running")
	}

	log.Printf("🚀 Starting Email Notification Service...")

	err := ens.consumer.StartConsumers(ens.ctx, ens.config.Kafka.NumConsumerWorkers)
	if err != nil {
		return fmt.Errorf("failed to start consumers: %w", err)
	}

	ens.isRunning = true
	log.Printf("✅ Email Notification Service started successfully")

	return nil
}

func (ens *EmailNotificationService) Stop() error {
	ens.mu.Lock()
	defer ens.mu.Unlock()

	if !ens.isRunning {
		return fmt.Errorf("notification service is not running")
	}

	log.Printf("🛑 Stopping Email Notification Service...")

	ens.cancel()

	if err := ens.consumer.Stop(); err != nil {
		log.Printf("Error stopping consumer: %v", err)
	}

	if err := ens.producer.Close(); err != nil {
		log.Printf("Error closing producer: %v", err)
	}

	ens.isRunning = false
	log.Printf("✅ Email Notification Service stopped")

	return nil
}

func (ens *EmailNotificationService) SendBookingConfirmation(ctx context.Context, userID uuid.UUID, email, name string,
	bookingID, eventID uuid.UUID, eventTitle, bookingRef string, quantity int, totalPrice float64) error {

	notification := NewNotificationBuilder().
		WithType(NotificationTypeBookingConfirmed).
		WithRecipient(userID, email, name).
		WithBookingContext(bookingID).
		WithEventContext(eventID).
		WithSubject(fmt.Sprintf("✅ Booking Confirmed for %s", eventTitle)).
		WithTemplateData(map[string]interface{}{
			"event_title": eventTitle,
			"booking_ref": bookingRef,
			"quantity":    quantity,
			"total_price": totalPrice,
		}).
		Build()

	return ens.producer.PublishNotification(ctx, notification)
}

func (ens *EmailNotificationService) ScheduleEventReminder(ctx context.Context, userID uuid.UUID, email, name string,
	bookingID, eventID uuid.UUID, eventTitle, venue string, eventTime, fireAt time.Time) error {

	// A reminder is worthless after the event starts
	expiresAt := eventTime

	notification := NewNotificationBuilder().
		WithType(NotificationTypeEventReminder).
		WithRecipient(userID, email, name).
		WithBookingContext(bookingID).
		WithEventContext(eventID).
		WithSubject(fmt.Sprintf("🔔 Reminder: %s starts soon", eventTitle)).
		WithExpiration(&expiresAt).
		WithTemplateData(map[string]interface{}{
			"event_title": eventTitle,
			"event_time":  eventTime.Format(time.RFC1123),
			"venue":       venue,
		}).
		Build()

	return ens.producer.PublishScheduledNotification(ctx, notification, fireAt)
}

func (ens *EmailNotificationService) HealthCheck(ctx context.Context) error {
	ens.mu.RLock()
	isRunning := ens.isRunning
	ens.mu.RUnlock()

	if !isRunning {
		return fmt.Errorf("notification service is not running")
	}

	if err := ens.producer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("producer health check failed: %w", err)
	}

	if err := ens.consumer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("consumer health check failed: %w", err)
	}

	return nil
}
