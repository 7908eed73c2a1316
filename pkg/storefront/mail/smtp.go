// Package mail delivers storefront email over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"gopkg.in/gomail.v2"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

// Config holds the SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool

	// Breaker settings. Zero values fall back to the defaults below.
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
}

const (
	defaultMaxConsecutiveFailures = 3
	defaultOpenTimeout            = 30 * time.Second
)

// SMTPMailer sends mail through an SMTP relay. Calls pass through a circuit
// breaker so a relay that keeps failing is not dialled on every request.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	send    func(...*gomail.Message) error
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

var _ storefront.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for the given relay
func NewSMTPMailer(cfg Config, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.MaxConsecutiveFailures == 0 {
		cfg.MaxConsecutiveFailures = defaultMaxConsecutiveFailures
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseSSL

	m := &SMTPMailer{
		dialer: dialer,
		send:   dialer.DialAndSend,
		logger: logger,
	}
	m.breaker = newBreaker(cfg, logger)
	return m, nil
}

func newBreaker(cfg Config, logger *slog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	maxFailures := cfg.MaxConsecutiveFailures
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Mail circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Send submits one message. It does not retry.
func (m *SMTPMailer) Send(ctx context.Context, mail storefront.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(mail.To) == 0 {
		return errors.New("mail has no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", mail.From)
	msg.SetHeader("To", mail.To...)
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/plain", mail.Body)

	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.send(msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("smtp relay unavailable: %w", err)
		}
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Debug("Mail sent", "subject", mail.Subject, "recipients", len(mail.To))
	return nil
}

// State reports the breaker state.
func (m *SMTPMailer) State() gobreaker.State {
	return m.breaker.State()
}
