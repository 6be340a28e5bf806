package handlers

import (
	"time"

	"github.com/linemk/shop-checkout/internal/domain/models"
)

// Деньги отдаются строкой с двумя знаками: "25.00"

type ProductResponse struct {
	ID          int64     `json:"id"`
	Category    int64     `json:"category"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Category:    p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type CartItemResponse struct {
	ID              int64  `json:"id"`
	Product         int64  `json:"product"`
	ProductName     string `json:"product_name"`
	ProductPrice    string `json:"product_price"`
	ProductImageURL string `json:"product_image_url"`
	Quantity        int    `json:"quantity"`
	Subtotal        string `json:"subtotal"`
}

type CartResponse struct {
	ID          int64              `json:"id"`
	Items       []CartItemResponse `json:"items"`
	TotalAmount string             `json:"total_amount"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func newCartResponse(c *models.Cart) CartResponse {
	resp := CartResponse{
		ID:          c.ID,
		Items:       make([]CartItemResponse, 0, len(c.Items)),
		TotalAmount: c.TotalAmount().StringFixed(2),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, item := range c.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ID:              item.ID,
			Product:         item.ProductID,
			ProductName:     item.ProductName,
			ProductPrice:    item.ProductPrice.StringFixed(2),
			ProductImageURL: item.ProductImageURL,
			Quantity:        item.Quantity,
			Subtotal:        item.Subtotal().StringFixed(2),
		})
	}
	return resp
}

type OrderItemResponse struct {
	ID          int64  `json:"id"`
	Product     int64  `json:"product"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID               int64               `json:"id"`
	User             int64               `json:"user"`
	Status           string              `json:"status"`
	TotalAmount      string              `json:"total_amount"`
	PaymentReference string              `json:"payment_reference"`
	ShippingAddress  string              `json:"shipping_address"`
	Items            []OrderItemResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func newOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		User:             o.UserID,
		Status:           string(o.Status),
		TotalAmount:      o.TotalAmount.StringFixed(2),
		PaymentReference: o.PaymentReference,
		ShippingAddress:  o.ShippingAddress,
		Items:            make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          item.ID,
			Product:     item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal().StringFixed(2),
		})
	}
	return resp
}
