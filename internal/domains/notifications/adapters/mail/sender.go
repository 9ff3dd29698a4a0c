// Package mail delivers rendered notifications. SMTP is used when configured;
// otherwise deliveries are written to the log.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
)

var (
	_ ports.Sender = (*SMTPSender)(nil)
	_ ports.Sender = (*LogSender)(nil)
)

const (
	defaultSMTPPort    = 25
	defaultSMTPTimeout = 10 * time.Second
)

// SMTPSender sends email through an SMTP relay. Each send is bounded by the configured timeout.
type SMTPSender struct {
	from    string
	timeout time.Duration
	deliver func(ctx context.Context, msg *gomail.Msg) error
}

type smtpOptions struct {
	username string
	password string
	timeout  time.Duration
}

type SMTPOption func(*smtpOptions)

// WithSMTPAuth enables PLAIN authentication.
func WithSMTPAuth(username, password string) SMTPOption {
	return func(o *smtpOptions) {
		o.username = username
		o.password = password
	}
}

// WithSMTPTimeout bounds dialling and the whole SMTP exchange.
func WithSMTPTimeout(d time.Duration) SMTPOption {
	return func(o *smtpOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewSMTPSender targets addr (host or host:port, port 25 by default).
func NewSMTPSender(addr, from string, opts ...SMTPOption) (*SMTPSender, error) {
	o := smtpOptions{timeout: defaultSMTPTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	host, port, err := splitAddr(addr)
	if err != nil {
		return nil, err
	}
	clientOpts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTimeout(o.timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if o.username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(o.username),
			gomail.WithPassword(o.password),
		)
	}
	client, err := gomail.NewClient(host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client for %s: %w", addr, err)
	}
	return &SMTPSender{
		from:    from,
		timeout: o.timeout,
		deliver: func(ctx context.Context, msg *gomail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, item domain.Item) error {
	if len(item.To) == 0 {
		return errors.New("no email recipients")
	}
	msg, err := buildMessage(s.from, item)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.deliver(ctx, msg)
}

// buildMessage leaves header encoding to go-mail, which never writes raw control characters.
func buildMessage(from string, item domain.Item) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("sender address %q: %w", from, err)
	}
	if err := msg.To(item.To...); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(item.Subject)
	if !item.ReceivedAt.IsZero() {
		msg.SetDateWithValue(item.ReceivedAt)
	}
	msg.SetBodyString(gomail.TypeTextPlain, item.Body)
	return msg, nil
}

func splitAddr(addr string) (string, int, error) {
	host, rawPort, err := net.SplitHostPort(addr)
	if err != nil {
		if addr == "" {
			return "", 0, errors.New("smtp address is empty")
		}
		return addr, defaultSMTPPort, nil
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return "", 0, fmt.Errorf("smtp port %q: %w", rawPort, err)
	}
	return host, port, nil
}

// LogSender records deliveries in the structured log. It also covers SMS, which has no gateway.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, item domain.Item) error {
	s.logger.InfoContext(ctx, "notification delivered",
		slog.String("notification.id", item.ID),
		slog.Any("notification.to", item.To),
		slog.String("notification.phone", item.Phone),
		slog.String("notification.subject", item.Subject))
	return nil
}
