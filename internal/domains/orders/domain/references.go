package domain

import "github.com/shopspring/decimal"

// ProductSnapshot is the catalog view of a product at order time.
// Degraded marks a placeholder produced while the catalog could not be reached.
type ProductSnapshot struct {
	ID                int64
	Name              string
	Price             decimal.Decimal
	AvailableQuantity int32
	Degraded          bool
}

// Customer is the client directory view used for notification addressing.
type Customer struct {
	ID       int64
	FullName string
	Email    string
	Phone    string
	Degraded bool
}

// PaymentMethod names how the customer pays.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "CARD"
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

// CardDetails are forwarded to the payment processor and never stored by orders.
type CardDetails struct {
	Number string
	CVV    string
	Expiry string
	Owner  string
}

// PaymentOutcome is the payment processor's verdict as seen by orders.
type PaymentOutcome string

const (
	PaymentApproved    PaymentOutcome = "PAID"
	PaymentDeclined    PaymentOutcome = "FAILED"
	PaymentUnavailable PaymentOutcome = "UNAVAILABLE"
)

// PaymentResult is returned by the payment gateway port.
type PaymentResult struct {
	PaymentID int64
	Outcome   PaymentOutcome
	Detail    string
}
