// Package worker runs the Temporal worker executing order fulfillment workflows.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-order-fulfillment/internal/app/bootstrap"
	apporders "github.com/Apurer/go-order-fulfillment/internal/app/orders"
	orderactivities "github.com/Apurer/go-order-fulfillment/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-order-fulfillment/internal/durable/temporal/workflows/orders"
)

const ServiceName = "order-worker"

// Run polls the fulfillment task queue until interrupted. The worker shares the order
// store with the orders API, so POSTGRES_DSN must point both at the same database.
func Run(ctx context.Context) error {
	p, err := bootstrap.Start(ctx, ServiceName, "8084")
	if err != nil {
		return err
	}
	defer p.Close()

	if p.Config.PostgresDSN == "" {
		p.Logger.Warn("POSTGRES_DSN not set, orders created by this worker are invisible to the orders API")
	}
	service, _ := apporders.BuildService(ctx, p)
	activities := orderactivities.NewActivities(service)

	temporalClient, err := p.ConnectTemporal()
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}

	w := worker.New(temporalClient, orderworkflows.FulfillmentTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.FulfillmentWorkflow, workflow.RegisterOptions{Name: orderworkflows.FulfillmentWorkflowName})
	w.RegisterActivityWithOptions(activities.CreateOrder, activity.RegisterOptions{Name: orderactivities.CreateOrderActivityName})

	p.Logger.Info("worker listening",
		slog.String("taskQueue", orderworkflows.FulfillmentTaskQueue),
		slog.String("namespace", p.Config.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		p.Logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return err
	}
	p.Logger.Info("Temporal worker stopped")
	return nil
}
