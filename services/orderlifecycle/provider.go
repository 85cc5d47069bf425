package orderlifecycle

import (
	"context"
)

// Payment statuses the controller acts upon. Any other status leaves the order as is.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type CreateOrderRequest struct {
	Email           string
	ShippingAddress ShippingAddress
	LineItems       []LineItem
	Currency        Currency
	PayerAddress    string
	CollectionID    string
}

type CreatedOrder struct {
	OrderUID     string
	ClientSecret string
	Snapshot     OrderSnapshot
}

// OrderSnapshot is what the provider knows about an order at one moment.
type OrderSnapshot struct {
	Phase         string
	PaymentStatus string
	Quote         *Quote
	Preparation   *PaymentPreparation
	FailureReason string
}

//go:generate mockgen -source=provider.go -package orderlifecycle -destination provider_mock.go Provider
type Provider interface {
	CreateCollection(c context.Context) (string, error)
	CreateOrder(c context.Context, req CreateOrderRequest) (CreatedOrder, error)
	GetOrderStatus(c context.Context, orderUID string, clientSecret string) (OrderSnapshot, error)
	UpdatePayerAddress(c context.Context, orderUID string, payerAddress string) (OrderSnapshot, error)
}
