package email

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"feedback360/internal/domain/notifications"
	"feedback360/internal/platform/config"
)

const (
	sendAttempts   = 3
	sendRetryDelay = 500 * time.Millisecond
	dialTimeout    = 10 * time.Second
)

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string, string) error {
	return nil
}

// smtpMailer delivers review notifications over SMTP, one connection per message.
type smtpMailer struct {
	cfg config.Config
}

// New returns an SMTP mailer when email is enabled, otherwise a mailer that
// drops every message.
func New(cfg config.Config) notifications.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

// Enabled reports whether m actually delivers mail.
func Enabled(m notifications.Mailer) bool {
	_, ok := m.(*smtpMailer)
	return ok
}

// Send retries network failures and 4xx replies with backoff. A 5xx reply is
// final.
func (s *smtpMailer) Send(ctx context.Context, from, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil
	}
	if strings.TrimSpace(from) == "" {
		from = s.cfg.EmailFrom
	}
	msg := buildMessage(from, to, subject, body)

	return retry.Do(
		func() error { return s.deliver(ctx, from, to, msg) },
		retry.Context(ctx),
		retry.Attempts(sendAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(sendRetryDelay),
		retry.RetryIf(transient),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("smtp send failed", "attempt", n+1, "to", to, "err", err)
		}),
		retry.LastErrorOnly(true),
	)
}

func (s *smtpMailer) deliver(ctx context.Context, from, to string, msg []byte) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort)))
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return err
		}
	}
	if s.cfg.SMTPUser != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	data, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := data.Write(msg); err != nil {
		data.Close()
		return err
	}
	if err := data.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func transient(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code >= 400 && protoErr.Code < 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
