package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Status is the outcome of a payment attempt.
type Status string

const (
	StatusPaid   Status = "PAID"
	StatusFailed Status = "FAILED"
)

// Method names how the customer pays.
type Method string

const (
	MethodCard     Method = "CARD"
	MethodCash     Method = "CASH"
	MethodTransfer Method = "TRANSFER"
)

var (
	ErrInvalidOrderID   = errors.New("order id must be greater than zero")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidMethod    = errors.New("payment method is not supported")
	ErrInvalidCard      = errors.New("card number is invalid")
	ErrInvalidStatus    = errors.New("payment status is invalid")
	ErrAlreadyCorrected = errors.New("payment status was already corrected")
)

// Card holds card input as received. Only the last four digits and the expiry are kept.
type Card struct {
	Number string
	CVV    string
	Expiry string
	Owner  string
}

// Payment is an immutable record of one charge attempt.
type Payment struct {
	ID         int64
	OrderID    int64
	Amount     decimal.Decimal
	Method     Method
	CardLast4  string
	CardExpiry string
	OwnerName  string
	Status     Status
	Corrected  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParseMethod defaults to CARD and accepts any known method case-insensitively.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	if m == "" {
		return MethodCard, nil
	}
	switch m {
	case MethodCard, MethodCash, MethodTransfer:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, raw)
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if s != StatusPaid && s != StatusFailed {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// NewPayment validates the request. The status is decided by the processor.
func NewPayment(orderID int64, amount decimal.Decimal, method Method, card *Card) (*Payment, error) {
	if orderID <= 0 {
		return nil, ErrInvalidOrderID
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := ParseMethod(string(method)); err != nil || method == "" {
		return nil, ErrInvalidMethod
	}
	p := &Payment{OrderID: orderID, Amount: amount, Method: method}
	if card != nil {
		digits := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) || r == '-' {
				return -1
			}
			return r
		}, card.Number)
		if len(digits) < 12 || strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
			return nil, ErrInvalidCard
		}
		p.CardLast4 = digits[len(digits)-4:]
		p.CardExpiry = strings.TrimSpace(card.Expiry)
		p.OwnerName = strings.TrimSpace(card.Owner)
	}
	return p, nil
}

// Correct overrides the status once.
func (p *Payment) Correct(status Status) error {
	if status != StatusPaid && status != StatusFailed {
		return ErrInvalidStatus
	}
	if p.Corrected {
		return ErrAlreadyCorrected
	}
	p.Status = status
	p.Corrected = true
	return nil
}
