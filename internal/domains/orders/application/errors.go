package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrDependencyUnavailable means a collaborating service could not be reached or its breaker is open.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrDependencyRejected means a collaborating service refused the call with a business error.
	ErrDependencyRejected = errors.New("dependency rejected request")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrClientNotFound     = errors.New("client not found")
	ErrPaymentDeclined    = errors.New("payment declined")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	// ErrIdempotencyConflict means the Idempotency-Key belongs to a different request.
	ErrIdempotencyConflict = errors.New("idempotency key conflict")

	errPlaceholder = errors.New("answered with a placeholder")
)

// DependencyError names the collaborator behind an unavailable or rejected call.
type DependencyError struct {
	Dependency string
	// Kind is ErrDependencyUnavailable or ErrDependencyRejected.
	Kind error
	Err  error
}

func unavailable(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Kind: ErrDependencyUnavailable, Err: err}
}

func rejected(dependency string, err error) *DependencyError {
	return &DependencyError{Dependency: dependency, Kind: ErrDependencyRejected, Err: err}
}

func (e *DependencyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Dependency)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Dependency, e.Err)
}

func (e *DependencyError) Is(target error) bool { return target == e.Kind }

func (e *DependencyError) Unwrap() error { return e.Err }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, domain.ErrInvalidProductID),
		errors.Is(err, domain.ErrInvalidClientID),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidUnitPrice),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

// Failure names an order error so it can cross a serialization boundary
// (a workflow activity result) and be rebuilt on the other side.
type Failure string

const (
	FailureNone                  Failure = ""
	FailureInvalidInput          Failure = "INVALID_INPUT"
	FailureDependencyUnavailable Failure = "DEPENDENCY_UNAVAILABLE"
	FailureDependencyRejected    Failure = "DEPENDENCY_REJECTED"
	FailureInsufficientStock     Failure = "INSUFFICIENT_STOCK"
	FailureClientNotFound        Failure = "CLIENT_NOT_FOUND"
	FailurePaymentDeclined       Failure = "PAYMENT_DECLINED"
	FailureInvalidTransition     Failure = "INVALID_TRANSITION"
	FailureIdempotencyConflict   Failure = "IDEMPOTENCY_CONFLICT"
	FailureInternal              Failure = "INTERNAL"
)

var failureSentinels = map[Failure]error{
	FailureInvalidInput:          ErrInvalidInput,
	FailureDependencyUnavailable: ErrDependencyUnavailable,
	FailureDependencyRejected:    ErrDependencyRejected,
	FailureInsufficientStock:     ErrInsufficientStock,
	FailureClientNotFound:        ErrClientNotFound,
	FailurePaymentDeclined:       ErrPaymentDeclined,
	FailureInvalidTransition:     ErrInvalidTransition,
	FailureIdempotencyConflict:   ErrIdempotencyConflict,
}

// Classify returns the Failure matching err.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	for failure, sentinel := range failureSentinels {
		if errors.Is(err, sentinel) {
			return failure
		}
	}
	return FailureInternal
}

// Err rebuilds an error that matches the original sentinel with errors.Is.
func (f Failure) Err(detail string) error {
	if f == FailureNone {
		return nil
	}
	sentinel, ok := failureSentinels[f]
	if !ok {
		return fmt.Errorf("order creation failed: %s", detail)
	}
	if detail == "" || detail == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, detail)
}
