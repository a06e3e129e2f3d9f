package structs

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrder struct {
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress DeliveryAddress `json:"shippingAddress"`
	UserLocation    *Coordinate     `json:"userLocation,omitempty"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

type Order struct {
	ID            string          `json:"_id"`
	Status        string          `json:"status"`
	ShopID        string          `json:"shop,omitempty"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentStatus string          `json:"paymentStatus,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type UnavailableShop struct {
	ShopID string `json:"shopId"`
	Name   string `json:"shopName"`
	Reason string `json:"reason,omitempty"`
}

type CreateOrderResponse struct {
	Orders           []Order           `json:"orders"`
	Message          string            `json:"message"`
	UnavailableShops []UnavailableShop `json:"unavailableShops"`
}

// PlacedOrder is the snapshot kept in the local order history.
type PlacedOrder struct {
	LocalID         string          `json:"localId"`
	OrderIDs        []string        `json:"orderIds"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress DeliveryAddress `json:"shippingAddress"`
	UserLocation    *Coordinate     `json:"userLocation,omitempty"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	CustomerEmail   string          `json:"customerEmail,omitempty"`
	PlacedAt        time.Time       `json:"placedAt"`
}
