package fulfillmentserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cataloghttpmapper "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/adapters/http/mapper"
	catalogports "github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
)

// CatalogAPI serves products and clients to the orders service and to operators.
type CatalogAPI struct {
	service catalogports.Service
}

func NewCatalogAPI(service catalogports.Service) *CatalogAPI {
	return &CatalogAPI{service: service}
}

// Get /api/products
func (api *CatalogAPI) ListProducts(c *gin.Context) {
	products, err := api.service.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProducts(products))
}

// Get /api/products/:id
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "product", id)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProduct(product))
}

// Post /api/products
func (api *CatalogAPI) CreateProduct(c *gin.Context) {
	var payload cataloghttpmapper.CreateProduct
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := api.service.CreateProduct(c.Request.Context(), payload.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloghttpmapper.FromProduct(product))
}

// Post /api/products/:id/reduce-stock
func (api *CatalogAPI) ReduceStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload cataloghttpmapper.ReduceStock
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := api.service.ReduceStock(c.Request.Context(), id, payload.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromProduct(product))
}

// Post /api/products/seed
func (api *CatalogAPI) SeedProducts(c *gin.Context) {
	added, err := api.service.SeedProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seeded": added})
}

// Get /api/clients
func (api *CatalogAPI) ListClients(c *gin.Context) {
	clients, err := api.service.ListClients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromClients(clients))
}

// Get /api/clients/:id
func (api *CatalogAPI) GetClient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	client, err := api.service.GetClient(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err, "client", id)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromClient(client))
}

// Post /api/clients
func (api *CatalogAPI) CreateClient(c *gin.Context) {
	var payload cataloghttpmapper.ClientPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	client, err := api.service.CreateClient(c.Request.Context(), payload.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloghttpmapper.FromClient(client))
}

// Put /api/clients/:id
func (api *CatalogAPI) UpdateClient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload cataloghttpmapper.ClientPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	client, err := api.service.UpdateClient(c.Request.Context(), id, payload.ToInput())
	if err != nil {
		respondLookupError(c, err, "client", id)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromClient(client))
}

// Delete /api/clients/:id
func (api *CatalogAPI) DeleteClient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteClient(c.Request.Context(), id); err != nil {
		respondLookupError(c, err, "client", id)
		return
	}
	c.Status(http.StatusNoContent)
}
