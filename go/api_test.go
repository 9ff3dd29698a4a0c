package fulfillmentserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
	notificationmemory "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/adapters/memory"
	notificationapp "github.com/Apurer/go-order-fulfillment/internal/domains/notifications/application"
	ordersexternal "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/external"
	ordersmemory "github.com/Apurer/go-order-fulfillment/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/go-order-fulfillment/internal/domains/orders/application"
	paymentsexternal "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/external"
	paymentsmemory "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/memory"
	paymentsapp "github.com/Apurer/go-order-fulfillment/internal/domains/payments/application"
	"github.com/Apurer/go-order-fulfillment/internal/platform/remote"
	"github.com/Apurer/go-order-fulfillment/internal/platform/resilience"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// system runs catalog, payments, and orders as separate HTTP servers talking over the remote proxy.
type system struct {
	catalog  *httptest.Server
	payments *httptest.Server
	orders   *httptest.Server
	breakers *resilience.Registry
	outbox   *notificationmemory.Publisher
	clientID int64
	email    string
}

func testBreakerSettings() resilience.Settings {
	s := resilience.DefaultSettings()
	s.MinRequests = 3
	s.Cooldown = time.Minute
	return s
}

func newSystem(t *testing.T, catalogURL string) *system {
	t.Helper()
	sys := &system{outbox: notificationmemory.NewPublisher()}

	catalogService := catalogapp.NewService(catalogmemory.NewProductRepository(), catalogmemory.NewClientRepository())
	_, err := catalogService.SeedProducts(context.Background())
	require.NoError(t, err)
	sys.email = strings.ToLower(gofakeit.Email())
	client, err := catalogService.CreateClient(context.Background(), catalogports.ClientInput{FullName: gofakeit.Name(), Email: sys.email})
	require.NoError(t, err)
	sys.clientID = client.ID
	sys.catalog = httptest.NewServer(NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{CatalogAPI: NewCatalogAPI(catalogService)}))
	t.Cleanup(sys.catalog.Close)
	if catalogURL == "" {
		catalogURL = sys.catalog.URL
	}

	ordersEngine := gin.New()
	sys.orders = httptest.NewServer(ordersEngine)
	t.Cleanup(sys.orders.Close)

	sys.breakers = resilience.NewRegistry(testBreakerSettings())
	paymentService := paymentsapp.NewService(
		paymentsmemory.NewRepository(),
		paymentsexternal.NewOrders(remote.NewClient("orders", sys.orders.URL), sys.breakers.Breaker(paymentsexternal.OrderBreaker)),
		notificationmemory.NewPublisher(),
	)
	sys.payments = httptest.NewServer(NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{PaymentAPI: NewPaymentAPI(paymentService)}))
	t.Cleanup(sys.payments.Close)

	catalogClient := remote.NewClient("catalog", catalogURL, remote.WithTimeout(time.Second))
	orderService := ordersapp.NewService(ordersmemory.NewRepository(), ordersapp.Dependencies{
		Products:  ordersexternal.NewCatalog(catalogClient, sys.breakers.Breaker(ordersexternal.ProductBreaker)),
		Clients:   ordersexternal.NewDirectory(catalogClient, sys.breakers.Breaker(ordersexternal.ClientBreaker)),
		Payments:  ordersexternal.NewPayments(remote.NewClient("payments", sys.payments.URL), sys.breakers.Breaker(ordersexternal.PaymentBreaker)),
		Publisher: sys.outbox,
	})
	NewRouterWithGinEngine(ordersEngine, ApiHandleFunctions{
		OrderAPI:   NewOrderAPI(orderService, nil),
		BreakerAPI: NewBreakerAPI(sys.breakers),
	})
	return sys
}

func do(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	switch v := decoded.(type) {
	case map[string]any:
		return resp.StatusCode, v
	case []any:
		return resp.StatusCode, map[string]any{"items": v}
	}
	return resp.StatusCode, nil
}

func card(cvv string) map[string]any {
	return map[string]any{"number": "4111 1111 1111 1111", "cvv": cvv, "expiry": "12/30", "owner": "Test Owner"}
}

func TestCreateOrderEndToEnd(t *testing.T) {
	sys := newSystem(t, "")

	status, body := do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
		"productId": 1, "quantity": 2, "clientId": sys.clientID, "paymentMethod": "CARD", "card": card("123"),
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "PAID", body["status"])
	assert.Equal(t, "30000", body["totalPrice"])
	orderID := body["id"].(float64)

	_, product := do(t, http.MethodGet, sys.catalog.URL+"/api/products/1", nil)
	assert.EqualValues(t, 8, product["availableQuantity"])

	_, payments := do(t, http.MethodGet, sys.payments.URL+"/api/payments/by-order/1", nil)
	items := payments["items"].([]any)
	require.Len(t, items, 1)
	payment := items[0].(map[string]any)
	assert.Equal(t, "PAID", payment["status"])
	assert.Equal(t, "1111", payment["cardLast4"])
	assert.NotContains(t, payment, "cvv")

	_, order := do(t, http.MethodGet, sys.orders.URL+"/api/orders/1", nil)
	assert.Equal(t, orderID, order["id"])
	assert.Equal(t, "PAID", order["status"])

	msgs := sys.outbox.Messages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].To, sys.email)
}

func TestCreateOrderInsufficientStockCreatesNothing(t *testing.T) {
	sys := newSystem(t, "")

	status, body := do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
		"productId": 1, "quantity": 11, "clientId": sys.clientID, "card": card("123"),
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "/problems/conflict", body["type"])

	_, list := do(t, http.MethodGet, sys.orders.URL+"/api/orders", nil)
	assert.Empty(t, list["items"])
	assert.Empty(t, sys.outbox.Messages())
}

func TestCreateOrderReferenceErrors(t *testing.T) {
	sys := newSystem(t, "")

	status, _ := do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
		"productId": 1, "quantity": 1, "clientId": 999,
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
		"productId": 1, "quantity": 0, "clientId": sys.clientID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateOrderDeclinedPaymentKeepsOrder(t *testing.T) {
	sys := newSystem(t, "")

	status, body := do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
		"productId": 1, "quantity": 1, "clientId": sys.clientID, "card": card("999"),
	})
	require.Equal(t, http.StatusPaymentRequired, status, body)
	extensions := body["extensions"].(map[string]any)
	order := extensions["order"].(map[string]any)
	assert.Equal(t, "PAYMENT_FAILED", order["status"])

	_, product := do(t, http.MethodGet, sys.catalog.URL+"/api/products/1", nil)
	assert.EqualValues(t, 10, product["availableQuantity"])

	_, stored := do(t, http.MethodGet, sys.orders.URL+"/api/orders/1", nil)
	assert.Equal(t, "PAYMENT_FAILED", stored["status"])
}

func TestCreateOrderCatalogDownIsUnavailable(t *testing.T) {
	sys := newSystem(t, "http://127.0.0.1:1")

	for i := 0; i < 4; i++ {
		status, body := do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
			"productId": 1, "quantity": 1, "clientId": sys.clientID,
		})
		require.Equal(t, http.StatusServiceUnavailable, status, body)
		extensions := body["extensions"].(map[string]any)
		assert.Equal(t, ordersexternal.ProductBreaker, extensions["dependency"])
	}

	_, breakers := do(t, http.MethodGet, sys.orders.URL+"/api/breakers", nil)
	var productBreaker map[string]any
	for _, item := range breakers["items"].([]any) {
		snapshot := item.(map[string]any)
		if snapshot["name"] == ordersexternal.ProductBreaker {
			productBreaker = snapshot
		}
	}
	require.NotNil(t, productBreaker)
	assert.Equal(t, "open", productBreaker["state"])

	_, list := do(t, http.MethodGet, sys.orders.URL+"/api/orders", nil)
	assert.Empty(t, list["items"])
}

func TestOrderStatusUpdatesAndDelete(t *testing.T) {
	sys := newSystem(t, "")
	status, _ := do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
		"productId": 2, "quantity": 1, "clientId": sys.clientID, "paymentMethod": "CASH",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, http.MethodPut, sys.orders.URL+"/api/orders/1/status", map[string]any{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CONFIRMED", body["status"])

	status, _ = do(t, http.MethodPut, sys.orders.URL+"/api/orders/1/status", map[string]any{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = do(t, http.MethodPut, sys.orders.URL+"/api/orders/1/status", map[string]any{"status": "LOST"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodDelete, sys.orders.URL+"/api/orders/1", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = do(t, http.MethodGet, sys.orders.URL+"/api/orders/1", nil)
	require.Equal(t, http.StatusNotFound, status)
	extensions := body["extensions"].(map[string]any)
	assert.Equal(t, "order", extensions["resourceType"])
	assert.EqualValues(t, 1, extensions["identifier"])

	status, _ = do(t, http.MethodDelete, sys.orders.URL+"/api/orders/1", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, http.MethodGet, sys.orders.URL+"/api/orders/abc", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "/problems/validation-error", body["type"])
	fields := body["extensions"].(map[string]any)["fields"].(map[string]any)
	assert.Equal(t, "must be a positive integer", fields["id"])
}

func TestCreateOrderCatalogRejectionIsBadGateway(t *testing.T) {
	rejecting := gin.New()
	rejecting.GET("/api/products/:id", func(c *gin.Context) {
		c.Header("Content-Type", "application/problem+json")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"title": "Unprocessable Entity", "detail": "product archived"})
	})
	catalog := httptest.NewServer(rejecting)
	t.Cleanup(catalog.Close)
	sys := newSystem(t, catalog.URL)

	for i := 0; i < 4; i++ {
		status, body := do(t, http.MethodPost, sys.orders.URL+"/api/orders", map[string]any{
			"productId": 1, "quantity": 1, "clientId": sys.clientID,
		})
		require.Equal(t, http.StatusBadGateway, status, body)
		assert.Equal(t, "/problems/bad-gateway", body["type"])
		assert.Contains(t, body["detail"], "product archived")
		extensions := body["extensions"].(map[string]any)
		assert.Equal(t, ordersexternal.ProductBreaker, extensions["dependency"])
	}

	assert.Equal(t, "closed", sys.breakers.Breaker(ordersexternal.ProductBreaker).State())
	_, list := do(t, http.MethodGet, sys.orders.URL+"/api/orders", nil)
	assert.Empty(t, list["items"])
}

func TestPaymentCorrectionOnlyOnce(t *testing.T) {
	sys := newSystem(t, "")

	status, payment := do(t, http.MethodPost, sys.payments.URL+"/api/payments", map[string]any{
		"orderId": 42, "amount": "19.99", "method": "CARD", "card": card("999"),
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "FAILED", payment["status"])

	status, corrected := do(t, http.MethodPatch, sys.payments.URL+"/api/payments/1/status", map[string]any{"status": "PAID"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PAID", corrected["status"])
	assert.Equal(t, true, corrected["corrected"])

	status, _ = do(t, http.MethodPatch, sys.payments.URL+"/api/payments/1/status", map[string]any{"status": "FAILED"})
	assert.Equal(t, http.StatusConflict, status)

	status, body := do(t, http.MethodGet, sys.payments.URL+"/api/payments/7", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "payment", body["extensions"].(map[string]any)["resourceType"])
}

func TestCatalogConflicts(t *testing.T) {
	sys := newSystem(t, "")

	status, _ := do(t, http.MethodPost, sys.catalog.URL+"/api/products/4/reduce-stock", map[string]any{"quantity": 101})
	assert.Equal(t, http.StatusConflict, status)

	status, product := do(t, http.MethodPost, sys.catalog.URL+"/api/products/4/reduce-stock", map[string]any{"quantity": 100})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, product["availableQuantity"])

	status, _ = do(t, http.MethodPost, sys.catalog.URL+"/api/clients", map[string]any{"fullName": "Someone Else", "email": sys.email})
	assert.Equal(t, http.StatusConflict, status)

	status, body := do(t, http.MethodPost, sys.catalog.URL+"/api/products/seed", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["seeded"])
}

func TestNotificationSurface(t *testing.T) {
	history := notificationmemory.NewHistory(0)
	consumer := notificationapp.NewConsumer(nil, history)
	service := notificationapp.NewService(notificationmemory.NewLoopbackPublisher(consumer), history)
	server := httptest.NewServer(NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{NotificationAPI: NewNotificationAPI(service)}))
	defer server.Close()

	status, _ := do(t, http.MethodPost, server.URL+"/api/notifications/send", map[string]any{"message": "hello"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodPost, server.URL+"/api/notifications/send", map[string]any{"to": []string{"ops@demo.com"}, "message": "hello"})
	require.Equal(t, http.StatusAccepted, status)

	_, body := do(t, http.MethodGet, server.URL+"/api/notifications", nil)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Notification", item["subject"])
	assert.Equal(t, "hello", item["message"])
}
