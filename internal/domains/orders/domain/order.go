package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusPaid          Status = "PAID"
	StatusConfirmed     Status = "CONFIRMED"
	StatusShipped       Status = "SHIPPED"
	StatusDelivered     Status = "DELIVERED"
	StatusPaymentFailed Status = "PAYMENT_FAILED"
	StatusCanceled      Status = "CANCELED"

	// StatusCreated and StatusFailed are used when payments are switched off.
	StatusCreated Status = "CREATED"
	StatusFailed  Status = "FAILED"
)

var (
	ErrInvalidProductID  = errors.New("product id must be greater than zero")
	ErrInvalidClientID   = errors.New("client id must be greater than zero")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice  = errors.New("unit price must be greater than zero")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusPaymentFailed, StatusCanceled},
	StatusPaid:      {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusShipped, StatusCanceled},
	StatusShipped:   {StatusDelivered, StatusCanceled},
	StatusCreated:   {StatusPaid, StatusFailed, StatusCanceled},
}

// ParseStatus accepts any known status, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusConfirmed, StatusShipped, StatusDelivered,
		StatusPaymentFailed, StatusCanceled, StatusCreated, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return s.Valid() && !ok
}

// CanTransition reports whether from -> to is an edge of the order lifecycle.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is the aggregate owned by the orders service. TotalPrice is fixed at creation.
type Order struct {
	ID         int64
	ClientID   int64
	ProductID  int64
	Quantity   int32
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder validates the request and captures unitPrice x quantity as the total.
func NewOrder(clientID, productID int64, quantity int32, unitPrice decimal.Decimal, initial Status) (*Order, error) {
	if initial == "" {
		initial = StatusPending
	}
	if initial != StatusPending && initial != StatusCreated {
		return nil, fmt.Errorf("%w: orders start as %s or %s", ErrInvalidStatus, StatusPending, StatusCreated)
	}
	o := &Order{
		ClientID:   clientID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt32(quantity)),
		Status:     initial,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if o.ProductID <= 0 {
		return ErrInvalidProductID
	}
	if o.ClientID <= 0 {
		return ErrInvalidClientID
	}
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !o.UnitPrice.IsPositive() {
		return ErrInvalidUnitPrice
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// TransitionTo moves the order along the lifecycle graph. Re-applying the current
// status is accepted and reported as unchanged.
func (o *Order) TransitionTo(next Status) (bool, error) {
	if !next.Valid() {
		return false, ErrInvalidStatus
	}
	if next == o.Status {
		return false, nil
	}
	if !CanTransition(o.Status, next) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	return true, nil
}
