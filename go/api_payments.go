package fulfillmentserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paymenthttpmapper "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/http/mapper"
	paymentsdomain "github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
	paymentsports "github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
)

// PaymentAPI wires HTTP transport with the payment processor.
type PaymentAPI struct {
	service paymentsports.Service
}

func NewPaymentAPI(service paymentsports.Service) *PaymentAPI {
	return &PaymentAPI{service: service}
}

// Post /api/payments
// A declined card is a created FAILED payment, not an error.
func (api *PaymentAPI) Pay(c *gin.Context) {
	var payload paymenthttpmapper.PaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	payment, err := api.service.Pay(c.Request.Context(), payload.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paymenthttpmapper.FromDomainPayment(payment))
}

// Get /api/payments
func (api *PaymentAPI) ListPayments(c *gin.Context) {
	payments, err := api.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromDomainPayments(payments))
}

// Get /api/payments/:id
func (api *PaymentAPI) GetPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payment, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "payment", id)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromDomainPayment(payment))
}

// Get /api/payments/by-order/:orderId
func (api *PaymentAPI) ListPaymentsByOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	payments, err := api.service.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromDomainPayments(payments))
}

// Patch /api/payments/:id/status
func (api *PaymentAPI) CorrectStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload paymenthttpmapper.StatusCorrection
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	status, err := paymentsdomain.ParseStatus(payload.Status)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	payment, err := api.service.CorrectStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromDomainPayment(payment))
}
