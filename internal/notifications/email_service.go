package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"ticketly/internal/shared/config"
)

// EmailService interface for sending emails
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
	Timeout   time.Duration
}

// NewSMTPConfig builds an SMTP config from application config
func NewSMTPConfig(cfg *config.Config) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		UseTLS:    true,
		Timeout:   30 * time.Second,
	}
}

// SMTPEmailService is a real SMTP implementation of the EmailService interface
type SMTPEmailService struct {
	config *SMTPConfig
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(config *SMTPConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	return &SMTPEmailService{config: config}, nil
}

// validateSMTPConfig validates SMTP configuration
func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil {
		return fmt.Errorf("SMTP config is nil")
	}

	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}

	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}

	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}

	return nil
}

// SendNotification sends a notification via email
func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	log.Printf("📧 [SMTP] Sending %s notification to %s (%s)",
		notification.Type,
		notification.RecipientEmail,
		notification.RecipientName,
	)

	htmlBody, textBody, err := s.generateContent(notification)
	if err != nil {
		return fmt.Errorf("failed to generate email content: %w", err)
	}

	return s.SendHTML(ctx, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
}

// SendHTML sends an HTML email
func (s *SMTPEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := s.buildMessage(to, subject, htmlBody, textBody)

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, to, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	}

	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("📧 [SMTP] Email sent successfully to %s", to)
	return nil
}

// sendWithSTARTTLS sends email with STARTTLS encryption
func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	tlsconfig := &tls.Config{
		InsecureSkipVerify: false,
		ServerName:         s.config.Host,
	}

	if err = client.StartTLS(tlsconfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	_, err = w.Write(message)
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return w.Close()
}

// buildMessage creates the email message with proper headers
func (s *SMTPEmailService) buildMessage(to, subject, htmlBody, textBody string) []byte {
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Date"] = time.Now().Format(time.RFC1123Z)

	// Create multipart message
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", boundary)

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n"

	// Text part
	if textBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/plain; charset=UTF-8\r\n"
		message += "\r\n"
		message += textBody + "\r\n"
	}

	// HTML part
	if htmlBody != "" {
		message += fmt.Sprintf("--%s\r\n", boundary)
		message += "Content-Type: text/html; charset=UTF-8\r\n"
		message += "\r\n"
		message += htmlBody + "\r\n"
	}

	message += fmt.Sprintf("--%s--\r\n", boundary)

	return []byte(message)
}

// generateContent creates email content for the supported notification types
func (s *SMTPEmailService) generateContent(notification *EmailNotification) (string, string, error) {
	data := notification.TemplateData

	switch notification.Type {
	case NotificationTypeBookingConfirmed:
		htmlBody := fmt.Sprintf(`
			<h2>✅ Booking Confirmed</h2>
			<p>Hi %s,</p>
			<p>Your booking for <strong>%s</strong> has been confirmed!</p>
			<p>Booking Reference: <strong>%s</strong></p>
			<p>Quantity: %v tickets</p>
			<p>Total Amount: $%.2f</p>
			<p>Best regards,<br>Ticketly Team</p>
		`,
			notification.RecipientName,
			data["event_title"],
			data["booking_ref"],
			data["quantity"],
			data["total_price"],
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\nYour booking for %s has been confirmed!\nBooking Reference: %s\nQuantity: %v tickets\nTotal Amount: $%.2f\n\nBest regards,\nTicketly Team",
			notification.RecipientName,
			data["event_title"],
			data["booking_ref"],
			data["quantity"],
			data["total_price"],
		)

		return htmlBody, textBody, nil

	case NotificationTypeEventReminder:
		htmlBody := fmt.Sprintf(`
			<h2>🔔 Event Reminder</h2>
			<p>Hi %s,</p>
			<p><strong>%s</strong> starts at <strong>%v</strong>.</p>
			<p>Venue: %s</p>
			<p>See you there!<br>Ticketly Team</p>
		`,
			notification.RecipientName,
			data["event_title"],
			data["event_time"],
			data["venue"],
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\n%s starts at %v.\nVenue: %s\n\nSee you there!\nTicketly Team",
			notification.RecipientName,
			data["event_title"],
			data["event_time"],
			data["venue"],
		)

		return htmlBody, textBody, nil

	default:
		htmlBody := fmt.Sprintf(`
			<h2>%s</h2>
			<p>Hi %s,</p>
			<p>This is a notification from Ticketly.</p>
			<p>Best regards,<br>Ticketly Team</p>
		`,
			notification.Subject,
			notification.RecipientName,
		)

		textBody := fmt.Sprintf(
			"Hi %s,\n\nThis is a notification from Ticketly.\n\nBest regards,\nTicketly Team",
			notification.RecipientName,
		)

		return htmlBody, textBody, nil
	}
}

type MockEmailService struct{}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

// SendNotification sends a mock notification
func (s *MockEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	log.Printf("📧 [MOCK] Sending %s notification to %s (%s)",
		notification.Type,
		notification.RecipientEmail,
		notification.RecipientName,
	)
	return nil
}

// SendHTML sends a mock HTML email
func (s *MockEmailService) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	log.Printf("📧 [MOCK] To: %s, Subject: %s", to, subject)
	log.Printf("📧 [MOCK] HTML Body: %s", strings.TrimSpace(htmlBody))
	return nil
}
