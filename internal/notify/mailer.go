package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mail is a single outgoing notification.
type Mail struct {
	To       string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer delivers mail.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds one delivery when ctx carries no earlier deadline.
	Timeout time.Duration
}

const defaultSMTPTimeout = 30 * time.Second

// SMTPMailer sends mail through an SMTP relay. gomail builds the message; the
// connection is dialed here so every network step runs under a deadline.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer builds a mailer for the relay in cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	return &SMTPMailer{cfg: cfg}
}

// Send dials the relay for every message. Dialing, TLS, auth and the SMTP
// exchange all stop at ctx's deadline or the configured timeout.
func (s *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", mail.Subject)
	m.SetBody("text/plain", mail.Body)
	if mail.HTMLBody != "" {
		m.AddAlternative("text/html", mail.HTMLBody)
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	client, err := s.dial(ctx, deadline)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer client.Close()

	send := gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		if err := client.Mail(from); err != nil {
			return err
		}
		for _, rcpt := range to {
			if err := client.Rcpt(rcpt); err != nil {
				return err
			}
		}
		w, err := client.Data()
		if err != nil {
			return err
		}
		if _, err := msg.WriteTo(w); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	})
	if err := gomail.Send(send, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return client.Quit()
}

func (s *SMTPMailer) dial(ctx context.Context, deadline time.Time) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, err
	}

	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	// Port 465 is implicit TLS, as in gomail's Dialer.
	if s.cfg.Port == 465 {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if s.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()
				return nil, err
			}
		}
	}
	if s.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

// LogMailer writes mail to the log instead of sending it. It is used when no
// SMTP relay is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer returns a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) Send(_ context.Context, mail Mail) error {
	l.logger.Info("mail not sent, smtp disabled",
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject))
	return nil
}
