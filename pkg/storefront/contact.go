package storefront

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultContactSubject is used when no subject is configured.
const DefaultContactSubject = "New message from the contact form"

// ContactConfig addresses contact form mail.
type ContactConfig struct {
	Sender     string
	Recipients []string
	Subject    string
}

// ContactService delivers contact form submissions by mail.
type ContactService struct {
	mailer   Mailer
	cfg      ContactConfig
	observer Observer
	logger   *slog.Logger
}

// NewContactService creates a contact service. A mailer and at least one
// recipient are required.
func NewContactService(opts ...Option) (*ContactService, error) {
	o := buildOptions(opts)
	if o.mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if len(o.contact.Recipients) == 0 {
		return nil, fmt.Errorf("at least one contact recipient is required")
	}
	cfg := o.contact
	if cfg.Subject == "" {
		cfg.Subject = DefaultContactSubject
	}
	return &ContactService{mailer: o.mailer, cfg: cfg, observer: o.observer, logger: o.logger}, nil
}

// Submit sends one message to the configured recipients. Transport failures
// are returned as ErrSendFailed and are not retried.
func (s *ContactService) Submit(ctx context.Context, msg ContactMessage) error {
	if err := validateContact(msg); err != nil {
		return err
	}

	mail := Mail{
		Subject: s.cfg.Subject,
		From:    s.cfg.Sender,
		To:      s.cfg.Recipients,
		Body:    fmt.Sprintf("Sender name: %s\nSender email: %s\nMessage:\n%s\n", msg.Name, msg.Email, msg.Message),
	}
	if err := s.mailer.Send(ctx, mail); err != nil {
		s.observer.MailSendFailed()
		s.logger.Error("Failed to send contact message", "email", msg.Email, "err", err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}
