// Package notification delivers transactional email through a pluggable provider.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expense_tracker/internal/logger"
)

// Supported provider names for Config.Provider.
const (
	ProviderLog   = "log"
	ProviderSMTP  = "smtp"
	ProviderGmail = "gmail"
)

// Message is one outbound email with an HTML body and a plain-text alternative.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message. Each call is a single attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Kind classifies a delivery failure.
type Kind int

const (
	KindUnavailable Kind = iota
	KindUnauthorized
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRejected:
		return "rejected"
	default:
		return "unavailable"
	}
}

// DeliveryError is returned by every provider when a message could not be sent.
type DeliveryError struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// KindOf reports the failure kind of err, if it carries a DeliveryError.
func KindOf(err error) (Kind, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// Config selects and configures a provider.
type Config struct {
	Provider string `mapstructure:"provider"`
	From     string `mapstructure:"from"`

	SMTP  SMTPConfig  `mapstructure:"smtp"`
	Gmail GmailConfig `mapstructure:"gmail"`
}

// New builds the configured sender. An empty provider, or one whose
// credentials are missing, falls back to the logging no-op sender.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderLog:
		return NewLogSender(log), nil
	case ProviderSMTP:
		if cfg.SMTP.Host == "" {
			log.Warnw("mail_provider_unconfigured", "provider", ProviderSMTP, "fallback", ProviderLog)
			return NewLogSender(log), nil
		}
		return NewSMTPSender(cfg.SMTP, cfg.From), nil
	case ProviderGmail:
		if cfg.Gmail.RefreshToken == "" || cfg.Gmail.ClientID == "" {
			log.Warnw("mail_provider_unconfigured", "provider", ProviderGmail, "fallback", ProviderLog)
			return NewLogSender(log), nil
		}
		return NewGmailSender(ctx, cfg.Gmail, cfg.From)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
