package orders

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-order-fulfillment/internal/durable/temporal/activities/orders"
)

const (
	// FulfillmentWorkflowName is the public identifier for registering the workflow.
	FulfillmentWorkflowName = "orders.workflows.Fulfillment"
	// FulfillmentTaskQueue is the queue consumed by the worker processing order workflows.
	FulfillmentTaskQueue = "ORDER_FULFILLMENT"
)

// FulfillmentWorkflowInput captures the payload required to place an order.
type FulfillmentWorkflowInput struct {
	Command ordersports.CreateOrderInput
	TraceID string
}

// FulfillmentWorkflow runs order creation as one activity. The activity is not
// retried: the payment call inside it must not be repeated.
func FulfillmentWorkflow(ctx workflow.Context, input FulfillmentWorkflowInput) (*orderactivities.FulfillmentResult, error) {
	logger := workflow.GetLogger(ctx)
	productID := input.Command.ProductID
	logger.Info("FulfillmentWorkflow started", withTraceID(input.TraceID, "productId", productID)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	var result orderactivities.FulfillmentResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), orderactivities.CreateOrderActivityName, input.Command).Get(ctx, &result)
	if err != nil {
		logger.Error("FulfillmentWorkflow failed", withTraceID(input.TraceID, "productId", productID, "error", err)...)
		return nil, err
	}
	if result.Order != nil {
		logger.Info("FulfillmentWorkflow completed", withTraceID(input.TraceID,
			"orderId", result.Order.ID, "status", string(result.Order.Status), "failure", string(result.Failure))...)
	} else {
		logger.Info("FulfillmentWorkflow completed without order", withTraceID(input.TraceID, "failure", string(result.Failure))...)
	}
	return &result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
