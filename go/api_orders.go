package fulfillmentserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/Apurer/go-order-fulfillment/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-order-fulfillment/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets clients retry order placement without creating duplicate workflows.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders service and its orchestrator.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. A nil orchestrator creates orders directly through the service.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) *OrderAPI {
	return &OrderAPI{service: service, workflows: workflows}
}

// Get /api/orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	orders, err := api.service.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Get /api/orders/:id
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := api.service.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "order", id)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /api/orders
// Places an order. A failed payment still answers with the persisted order under the "order" extension.
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	input := payload.ToInput(strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)))

	var (
		order *ordersdomain.Order
		err   error
	)
	if api.workflows != nil {
		order, err = api.workflows.CreateOrder(c.Request.Context(), input)
	} else {
		order, err = api.service.CreateOrder(c.Request.Context(), input)
	}
	if err != nil {
		if order != nil {
			respondErrorWith(c, err, "order", orderhttpmapper.FromDomainOrder(order))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromDomainOrder(order))
}

// Put /api/orders/:id/status
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload orderhttpmapper.StatusUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	status, err := ordersdomain.ParseStatus(payload.Status)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	order, err := api.service.UpdateOrderStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Delete /api/orders/:id
func (api *OrderAPI) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), id); err != nil {
		respondLookupError(c, err, "order", id)
		return
	}
	c.Status(http.StatusNoContent)
}
