package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
)

var (
	// ErrProductNotFound is returned when the catalog has no such product.
	ErrProductNotFound = errors.New("product not found")
	// ErrCustomerNotFound is returned when the client directory has no such client.
	ErrCustomerNotFound = errors.New("client not found")
	// ErrRejected is returned when a collaborator answered with a business error other than not found.
	ErrRejected = errors.New("dependency rejected request")
)

// Collaborator names, shared by the circuit breakers and the errors that report them.
const (
	ProductService = "productService"
	ClientService  = "clientService"
	PaymentService = "paymentService"
)

// ProductCatalog is the product service as seen by the orchestrator.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (domain.ProductSnapshot, error)
	ReduceStock(ctx context.Context, id int64, quantity int32) error
}

// ClientDirectory resolves the ordering client.
type ClientDirectory interface {
	GetClient(ctx context.Context, id int64) (domain.Customer, error)
}

// PaymentRequest is sent to the payment processor for a persisted order.
type PaymentRequest struct {
	OrderID int64
	Amount  decimal.Decimal
	Method  domain.PaymentMethod
	Card    *domain.CardDetails
}

// PaymentGateway charges an order. A decline is a result, not an error.
type PaymentGateway interface {
	Pay(ctx context.Context, req PaymentRequest) (domain.PaymentResult, error)
}
