package mapper

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-fulfillment/internal/domains/catalog/ports"
)

// Product is the wire shape shared with the orders service.
type Product struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int32           `json:"availableQuantity"`
}

type CreateProduct struct {
	Name              string          `json:"name" binding:"required"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int32           `json:"availableQuantity"`
}

type ReduceStock struct {
	Quantity int32 `json:"quantity"`
}

type Client struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

type ClientPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func FromProduct(p *domain.Product) Product {
	if p == nil {
		return Product{}
	}
	return Product{ID: p.ID, Name: p.Name, Price: p.Price, AvailableQuantity: p.AvailableQuantity}
}

func FromProducts(list []*domain.Product) []Product {
	return lo.Map(list, func(p *domain.Product, _ int) Product { return FromProduct(p) })
}

func (p CreateProduct) ToInput() ports.CreateProductInput {
	return ports.CreateProductInput{Name: p.Name, Price: p.Price, AvailableQuantity: p.AvailableQuantity}
}

func FromClient(c *domain.Client) Client {
	if c == nil {
		return Client{}
	}
	return Client{ID: c.ID, FullName: c.FullName, Email: c.Email, Phone: c.Phone}
}

func FromClients(list []*domain.Client) []Client {
	return lo.Map(list, func(c *domain.Client, _ int) Client { return FromClient(c) })
}

func (p ClientPayload) ToInput() ports.ClientInput {
	return ports.ClientInput{FullName: p.FullName, Email: p.Email, Phone: p.Phone}
}
