// Package mailer renders notification intents into mail and delivers it.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"samved/internal/notify/metrics"
	"samved/internal/platform/config"
	"samved/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the SMTP breaker is refusing calls.
var ErrCircuitOpen = errors.New("smtp circuit open")

// Message is a rendered HTML mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers rendered mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through an SMTP relay behind a circuit breaker.
type SMTPMailer struct {
	addr    string
	from    string
	auth    smtp.Auth
	send    sendFunc
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*SMTPMailer)

func WithLogger(logger *slog.Logger) Option {
	return func(m *SMTPMailer) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *SMTPMailer) {
		m.metrics = mt
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *SMTPMailer) {
		m.breaker = b
	}
}

func withSendFunc(fn sendFunc) Option {
	return func(m *SMTPMailer) {
		m.send = fn
	}
}

func NewSMTP(cfg config.SMTPConfig, opts ...Option) *SMTPMailer {
	m := &SMTPMailer{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:    cfg.From,
		send:    smtp.SendMail,
		breaker: circuit.New("smtp"),
	}
	if cfg.User != "" {
		m.auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.breaker.Allow() {
		return ErrCircuitOpen
	}
	err := m.send(m.addr, m.auth, m.from, []string{msg.To}, m.encode(msg))
	if err != nil {
		_, change := m.breaker.RecordFailure()
		if change.Opened {
			m.onStateChange(ctx, true)
		}
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	_, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.onStateChange(ctx, false)
	}
	return nil
}

func (m *SMTPMailer) onStateChange(ctx context.Context, open bool) {
	if m.metrics != nil {
		m.metrics.SetCircuitOpen(open)
	}
	if m.logger == nil {
		return
	}
	if open {
		m.logger.WarnContext(ctx, "smtp circuit opened", "breaker", m.breaker.Name())
		return
	}
	m.logger.InfoContext(ctx, "smtp circuit closed", "breaker", m.breaker.Name())
}

func (m *SMTPMailer) encode(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogMailer records mail in the log instead of sending it. Used when no
// SMTP host is configured. Bodies are never logged.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "mail not sent, smtp disabled",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
