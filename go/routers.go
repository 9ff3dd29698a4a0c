// Package fulfillmentserver holds the gin handlers for the order fulfillment services.
// Each process registers only the APIs it serves.
package fulfillmentserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the APIs a process serves. Nil members are not routed.
type ApiHandleFunctions struct {
	OrderAPI        *OrderAPI
	PaymentAPI      *PaymentAPI
	CatalogAPI      *CatalogAPI
	NotificationAPI *NotificationAPI
	BreakerAPI      *BreakerAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(h ApiHandleFunctions) []Route {
	var routes []Route
	if api := h.OrderAPI; api != nil {
		routes = append(routes,
			Route{"ListOrders", http.MethodGet, "/api/orders", api.ListOrders},
			Route{"GetOrder", http.MethodGet, "/api/orders/:id", api.GetOrder},
			Route{"CreateOrder", http.MethodPost, "/api/orders", api.CreateOrder},
			Route{"UpdateOrderStatus", http.MethodPut, "/api/orders/:id/status", api.UpdateOrderStatus},
			Route{"DeleteOrder", http.MethodDelete, "/api/orders/:id", api.DeleteOrder},
		)
	}
	if api := h.PaymentAPI; api != nil {
		routes = append(routes,
			Route{"Pay", http.MethodPost, "/api/payments", api.Pay},
			Route{"ListPayments", http.MethodGet, "/api/payments", api.ListPayments},
			Route{"GetPayment", http.MethodGet, "/api/payments/:id", api.GetPayment},
			Route{"ListPaymentsByOrder", http.MethodGet, "/api/payments/by-order/:orderId", api.ListPaymentsByOrder},
			Route{"CorrectPaymentStatus", http.MethodPatch, "/api/payments/:id/status", api.CorrectStatus},
		)
	}
	if api := h.CatalogAPI; api != nil {
		routes = append(routes,
			Route{"ListProducts", http.MethodGet, "/api/products", api.ListProducts},
			Route{"GetProduct", http.MethodGet, "/api/products/:id", api.GetProduct},
			Route{"CreateProduct", http.MethodPost, "/api/products", api.CreateProduct},
			Route{"ReduceStock", http.MethodPost, "/api/products/:id/reduce-stock", api.ReduceStock},
			Route{"SeedProducts", http.MethodPost, "/api/products/seed", api.SeedProducts},
			Route{"ListClients", http.MethodGet, "/api/clients", api.ListClients},
			Route{"GetClient", http.MethodGet, "/api/clients/:id", api.GetClient},
			Route{"CreateClient", http.MethodPost, "/api/clients", api.CreateClient},
			Route{"UpdateClient", http.MethodPut, "/api/clients/:id", api.UpdateClient},
			Route{"DeleteClient", http.MethodDelete, "/api/clients/:id", api.DeleteClient},
		)
	}
	if api := h.NotificationAPI; api != nil {
		routes = append(routes,
			Route{"ListNotifications", http.MethodGet, "/api/notifications", api.ListNotifications},
			Route{"SendNotification", http.MethodPost, "/api/notifications/send", api.SendNotification},
		)
	}
	if api := h.BreakerAPI; api != nil {
		routes = append(routes, Route{"ListBreakers", http.MethodGet, "/api/breakers", api.ListBreakers})
	}
	return routes
}
