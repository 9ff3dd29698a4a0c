package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductName = errors.New("product name is required")
	ErrInvalidPrice       = errors.New("price must be greater than zero")
	ErrInvalidStock       = errors.New("available quantity cannot be negative")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// Product is a sellable item with its current stock level.
type Product struct {
	ID                int64
	Name              string
	Price             decimal.Decimal
	AvailableQuantity int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewProduct validates and constructs a Product.
func NewProduct(name string, price decimal.Decimal, available int32) (*Product, error) {
	p := &Product{
		Name:              strings.TrimSpace(name),
		Price:             price,
		AvailableQuantity: available,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidProductName
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.AvailableQuantity < 0 {
		return ErrInvalidStock
	}
	return nil
}

// ReduceStock removes quantity units, refusing to go below zero.
func (p *Product) ReduceStock(quantity int32) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.AvailableQuantity < quantity {
		return ErrInsufficientStock
	}
	p.AvailableQuantity -= quantity
	return nil
}
