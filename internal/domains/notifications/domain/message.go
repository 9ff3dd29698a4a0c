package domain

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	// DefaultSubject is used when a producer leaves the subject blank.
	DefaultSubject = "Notification"
	// EmptyBody replaces a blank message body.
	EmptyBody = "(empty)"
	// HistoryLimit is the number of consumed messages kept for inspection.
	HistoryLimit = 200
)

// Message is the payload carried on the notification queue.
type Message struct {
	To      []string `json:"to"`
	Phone   string   `json:"phone,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Body    string   `json:"message"`
}

// Normalize trims fields and drops blank or duplicate recipients.
func (m Message) Normalize() Message {
	to := lo.Map(m.To, func(addr string, _ int) string { return singleLine(addr) })
	m.To = lo.Uniq(lo.Compact(to))
	m.Phone = singleLine(m.Phone)
	m.Subject = singleLine(m.Subject)
	return m
}

// singleLine folds CR and LF into spaces so header values cannot start new headers.
func singleLine(s string) string {
	return strings.TrimSpace(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\r' || r == '\n'
	}), " "))
}

// Render returns the subject and body that will be delivered, applying defaults.
func (m Message) Render() (subject, body string) {
	subject = singleLine(m.Subject)
	if subject == "" {
		subject = DefaultSubject
	}
	body = m.Body
	if strings.TrimSpace(body) == "" {
		body = EmptyBody
	}
	return subject, body
}

// HasRecipients reports whether the message can be delivered by email or SMS.
func (m Message) HasRecipients() bool {
	return len(m.Normalize().To) > 0 || strings.TrimSpace(m.Phone) != ""
}

// DeliveryStatus records what happened to a consumed message.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
	DeliverySkipped DeliveryStatus = "SKIPPED"
)

// Item is one rendered message kept in the bounded history.
type Item struct {
	ID         string
	To         []string
	Phone      string
	Subject    string
	Body       string
	Delivery   DeliveryStatus
	Error      string
	ReceivedAt time.Time
}
