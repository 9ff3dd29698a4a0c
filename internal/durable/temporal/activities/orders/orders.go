package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	ordersapp "github.com/Apurer/go-order-fulfillment/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
)

// CreateOrderActivityName runs the order orchestrator once.
const CreateOrderActivityName = "orders.activities.CreateOrder"

// FulfillmentResult carries the outcome of order creation across the workflow boundary.
// A payment failure returns both the persisted order and a Failure.
type FulfillmentResult struct {
	Order   *ordersdomain.Order
	Failure ordersapp.Failure
	Detail  string
	// Dependency names the collaborator behind a dependency failure.
	Dependency string
}

// Err rebuilds the orchestrator error, if any.
func (r FulfillmentResult) Err() error {
	if r.Dependency == "" {
		return r.Failure.Err(r.Detail)
	}
	dep := &ordersapp.DependencyError{Dependency: r.Dependency, Kind: r.Failure.Err("")}
	if r.Detail != "" {
		dep.Err = errors.New(r.Detail)
	}
	return dep
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// CreateOrder reports business failures in the result so the workflow does not retry them.
func (a *Activities) CreateOrder(ctx context.Context, input ordersports.CreateOrderInput) (FulfillmentResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order activity not initialized", "productId", input.ProductID)
		return FulfillmentResult{}, errors.New("order activity not initialized")
	}
	logger.Info("CreateOrder activity started", "productId", input.ProductID, "clientId", input.ClientID)
	order, err := a.service.CreateOrder(ctx, input)
	result := FulfillmentResult{Order: order}
	if err != nil {
		result.Failure = ordersapp.Classify(err)
		result.Detail = err.Error()
		var dep *ordersapp.DependencyError
		if errors.As(err, &dep) {
			result.Dependency = dep.Dependency
			result.Detail = ""
			if dep.Err != nil {
				result.Detail = dep.Err.Error()
			}
		}
		logger.Warn("CreateOrder activity finished with failure", "failure", string(result.Failure), "error", err)
		return result, nil
	}
	logger.Info("CreateOrder activity completed", "orderId", order.ID, "status", string(order.Status))
	return result, nil
}
