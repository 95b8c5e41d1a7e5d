package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SMTPSender relays mail through an SMTP server with PLAIN auth over STARTTLS.
type SMTPSender struct {
	cfg  SMTPConfig
	from string
	now  func() time.Time
}

func NewSMTPSender(cfg SMTPConfig, from string) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg, from: from, now: time.Now}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body, err := buildMIME(s.from, msg, s.now())
	if err != nil {
		return &DeliveryError{Provider: ProviderSMTP, Kind: KindRejected, Err: err}
	}
	if err := s.deliver(ctx, msg.To, body); err != nil {
		return &DeliveryError{Provider: ProviderSMTP, Kind: smtpKind(err), Err: err}
	}
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}

// smtpKind maps SMTP reply codes: 530/534/535 are auth failures, other 5xx are
// permanent rejections, 4xx and transport errors are transient.
func smtpKind(err error) Kind {
	var te *textproto.Error
	if errors.As(err, &te) {
		switch {
		case te.Code == 530 || te.Code == 534 || te.Code == 535:
			return KindUnauthorized
		case te.Code >= 500:
			return KindRejected
		}
	}
	return KindUnavailable
}
