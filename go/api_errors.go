package fulfillmentserver

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
	notificationapp "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/application"
	notificationports "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/ports"
	ordersapp "github.com/Apurer/go-order-fulfillment/internal/domains/orders/application"
	ordersports "github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
	paymentsapp "github.com/Apurer/go-order-fulfillment/internal/domains/payments/application"
	paymentsports "github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
	apierrors "github.com/Apurer/go-order-fulfillment/internal/shared/errors"
)

// statusMapping pairs an application sentinel with the problem template it maps to.
type statusMapping struct {
	target  error
	problem apierrors.ProblemDetail
}

var problemMappings = []statusMapping{
	{ordersapp.ErrInvalidInput, apierrors.ErrValidation},
	{paymentsapp.ErrInvalidInput, apierrors.ErrValidation},
	{catalogapp.ErrInvalidInput, apierrors.ErrValidation},
	{notificationapp.ErrInvalidInput, apierrors.ErrValidation},

	{ordersports.ErrNotFound, apierrors.ErrNotFound},
	{ordersapp.ErrClientNotFound, apierrors.ErrNotFound},
	{paymentsports.ErrNotFound, apierrors.ErrNotFound},
	{catalogports.ErrProductNotFound, apierrors.ErrNotFound},
	{catalogports.ErrClientNotFound, apierrors.ErrNotFound},

	{ordersapp.ErrInsufficientStock, apierrors.ErrConflict},
	{ordersapp.ErrInvalidTransition, apierrors.ErrConflict},
	{ordersapp.ErrIdempotencyConflict, apierrors.ErrConflict},
	{paymentsapp.ErrAlreadyCorrected, apierrors.ErrConflict},
	{catalogapp.ErrConflict, apierrors.ErrConflict},

	{ordersapp.ErrPaymentDeclined, apierrors.ErrPaymentRequired},
	{ordersapp.ErrDependencyRejected, apierrors.ErrBadGateway},
	{ordersapp.ErrDependencyUnavailable, apierrors.ErrServiceUnavailable},
	{notificationports.ErrPublisherUnavailable, apierrors.ErrServiceUnavailable},
}

func mapApplicationError(err error) (apierrors.ProblemDetail, bool) {
	var dep *ordersapp.DependencyError
	if errors.As(err, &dep) {
		if dep.Kind == ordersapp.ErrDependencyRejected {
			return apierrors.NewRejectedProblem(dep.Dependency, err.Error()), true
		}
		return apierrors.NewDependencyProblem(dep.Dependency, err.Error()), true
	}
	for _, m := range problemMappings {
		if errors.Is(err, m.target) {
			return m.problem.WithDetail(err.Error()), true
		}
	}
	return apierrors.ProblemDetail{}, false
}

var responder = apierrors.NewChainedResponder("", mapApplicationError)

// respondError writes err as a problem response.
func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// respondLookupError answers a missing resource with a problem naming it.
func respondLookupError(c *gin.Context, err error, resource string, id int64) {
	for _, target := range lookupMisses {
		if errors.Is(err, target) {
			responder.NotFound(c, resource, id)
			return
		}
	}
	respondError(c, err)
}

var lookupMisses = []error{
	ordersports.ErrNotFound,
	paymentsports.ErrNotFound,
	catalogports.ErrProductNotFound,
	catalogports.ErrClientNotFound,
}

// respondErrorWith attaches an extension, such as the order a failed payment left behind.
func respondErrorWith(c *gin.Context, err error, key string, value any) {
	problem, ok := mapApplicationError(err)
	if !ok {
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	responder.Respond(c, problem.WithExtension(key, value))
}

func respondBadRequest(c *gin.Context, err error) {
	responder.BadRequest(c, err.Error())
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		responder.ValidationFailed(c, map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return id, true
}
