//go:build pact
// +build pact

package provider_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"

	fulfillmentserver "github.com/Apurer/go-order-fulfillment/go"
	notificationmemory "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/memory"
	paymentsmemory "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/memory"
	paymentsobs "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/observability"
	paymentsapp "github.com/Apurer/go-order-fulfillment/internal/domains/payments/application"
	pacttest "github.com/Apurer/go-order-fulfillment/test/pact"
)

type acceptingOrders struct{}

func (acceptingOrders) UpdateOrderStatus(context.Context, int64, string) error { return nil }

func TestPaymentProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pactFile := requirePactFile(t, pacttest.PaymentProviderName)

	handler := &swappableHandler{}
	reset := func() {
		service := paymentsobs.New(paymentsapp.NewService(
			paymentsmemory.NewRepository(), acceptingOrders{}, notificationmemory.NewPublisher(),
			paymentsapp.WithDeclineCVV(pacttest.DeclineCVV),
		))
		router := gin.New()
		router.Use(gin.Recovery())
		handler.current.Store(fulfillmentserver.NewRouterWithGinEngine(router, fulfillmentserver.ApiHandleFunctions{
			PaymentAPI: fulfillmentserver.NewPaymentAPI(service),
		}))
	}
	reset()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	err := pactprovider.NewVerifier().VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: server.URL,
		Provider:        pacttest.PaymentProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers: models.StateHandlers{
			pacttest.StatePaymentsBase: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
				if setup {
					reset()
				}
				return nil, nil
			},
		},
	})
	require.NoError(t, err)
}
