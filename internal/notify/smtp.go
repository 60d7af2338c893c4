package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig describes the mail server failures are sent through.
type SMTPConfig struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

// SMTP sends notifications as plain text mail.
type SMTP struct {
	Config SMTPConfig

	// send is smtp.SendMail, replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates a notifier for cfg. Port 0 means 587.
func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTP{Config: cfg, send: smtp.SendMail}
}

// Notify sends one mail to every configured recipient.
func (s *SMTP) Notify(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.Config.To) == 0 {
		return fmt.Errorf("smtp: no recipients configured")
	}

	var auth smtp.Auth
	if s.Config.User != "" {
		auth = smtp.PlainAuth("", s.Config.User, s.Config.Password, s.Config.Server)
	}

	addr := net.JoinHostPort(s.Config.Server, strconv.Itoa(s.Config.Port))
	msg := s.message(subject, body, time.Now())
	if err := s.send(addr, auth, s.Config.From, s.Config.To, msg); err != nil {
		return fmt.Errorf("smtp: send via %s: %w", addr, err)
	}
	return nil
}

func (s *SMTP) message(subject, body string, date time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + s.Config.From + "\r\n")
	sb.WriteString("To: " + strings.Join(s.Config.To, ", ") + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(sb.String())
}
