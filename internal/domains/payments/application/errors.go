package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid payment input")
	// ErrAlreadyCorrected signals a second status correction.
	ErrAlreadyCorrected = errors.New("payment already corrected")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrAlreadyCorrected):
		return fmt.Errorf("%w: %w", ErrAlreadyCorrected, err)
	case errors.Is(err, domain.ErrInvalidOrderID),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidMethod),
		errors.Is(err, domain.ErrInvalidCard),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
