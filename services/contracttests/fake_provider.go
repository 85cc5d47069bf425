package contracttests

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/cryptocheckout/lib/mystore"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
	"github.com/MarcGrol/cryptocheckout/lib/myuuid"
	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

const quoteValidity = 10 * time.Minute

type fakeOrder struct {
	UID          string
	ClientSecret string
	CollectionID string
	Amount       decimal.Decimal
	Currency     string
	PayerAddress string
	ExpiresAt    time.Time
	Status       string
}

// FakeProvider behaves like the checkout provider, without the network.
type FakeProvider struct {
	uuider myuuid.UUIDer
	nower  mytime.Nower
	Store  *mystore.InMemoryStore[fakeOrder]
}

func NewFakeProvider(nower mytime.Nower) *FakeProvider {
	store, _, _ := mystore.NewInMemoryStore[fakeOrder](context.Background())
	return &FakeProvider{
		uuider: myuuid.RealUUIDer{},
		nower:  nower,
		Store:  store,
	}
}

func (p *FakeProvider) CreateCollection(c context.Context) (string, error) {
	return "collection-" + p.uuider.Create(), nil
}

func (p *FakeProvider) CreateOrder(c context.Context, req orderlifecycle.CreateOrderRequest) (orderlifecycle.CreatedOrder, error) {
	if req.CollectionID == "" {
		return orderlifecycle.CreatedOrder{}, rejected("create order", http.StatusBadRequest, "lineItems.collectionLocator is invalid")
	}
	// Dirty exception coded into fake
	if strings.HasPrefix(req.PayerAddress, "0x") {
		return orderlifecycle.CreatedOrder{}, rejected("create order", http.StatusBadRequest, "payment.payerAddress is not a solana address")
	}

	amount := decimal.Zero
	for _, li := range req.LineItems {
		amount = amount.Add(li.Total())
	}

	order := fakeOrder{
		UID:          p.uuider.Create(),
		ClientSecret: p.uuider.Create(),
		CollectionID: req.CollectionID,
		Amount:       amount,
		Currency:     string(req.Currency),
		PayerAddress: req.PayerAddress,
		ExpiresAt:    p.nower.Now().Add(quoteValidity),
		Status:       "awaiting-payment",
	}
	err := p.Store.Put(c, order.UID, order)
	if err != nil {
		return orderlifecycle.CreatedOrder{}, err
	}

	return orderlifecycle.CreatedOrder{
		OrderUID:     order.UID,
		ClientSecret: order.ClientSecret,
		Snapshot:     order.snapshot(),
	}, nil
}

func (p *FakeProvider) GetOrderStatus(c context.Context, orderUID string, clientSecret string) (orderlifecycle.OrderSnapshot, error) {
	order, err := p.get(c, "get order status", orderUID)
	if err != nil {
		return orderlifecycle.OrderSnapshot{}, err
	}
	if order.ClientSecret != clientSecret {
		return orderlifecycle.OrderSnapshot{}, rejected("get order status", http.StatusUnauthorized, "invalid client secret")
	}
	return order.snapshot(), nil
}

func (p *FakeProvider) UpdatePayerAddress(c context.Context, orderUID string, payerAddress string) (orderlifecycle.OrderSnapshot, error) {
	order, err := p.get(c, "update payer address", orderUID)
	if err != nil {
		return orderlifecycle.OrderSnapshot{}, err
	}

	order.PayerAddress = payerAddress
	err = p.Store.Put(c, order.UID, order)
	if err != nil {
		return orderlifecycle.OrderSnapshot{}, err
	}
	return order.snapshot(), nil
}

// Settle ends the order as the chain would after the payment landed or bounced.
func (p *FakeProvider) Settle(c context.Context, orderUID string, status string) error {
	order, err := p.get(c, "settle", orderUID)
	if err != nil {
		return err
	}
	order.Status = status
	return p.Store.Put(c, order.UID, order)
}

func (p *FakeProvider) get(c context.Context, operation string, orderUID string) (fakeOrder, error) {
	order, found, err := p.Store.Get(c, orderUID)
	if err != nil {
		return fakeOrder{}, err
	}
	if !found {
		return fakeOrder{}, rejected(operation, http.StatusNotFound, "order not found")
	}
	return order, nil
}

func (o fakeOrder) snapshot() orderlifecycle.OrderSnapshot {
	snapshot := orderlifecycle.OrderSnapshot{
		Phase:         "payment",
		PaymentStatus: o.Status,
		Quote: &orderlifecycle.Quote{
			Amount:    o.Amount,
			Currency:  o.Currency,
			ExpiresAt: o.ExpiresAt,
		},
	}
	if o.Status == orderlifecycle.PaymentStatusCompleted {
		snapshot.Phase = "completed"
	}
	if o.PayerAddress != "" {
		snapshot.Preparation = &orderlifecycle.PaymentPreparation{
			SerializedTransaction: []byte(o.UID + ":" + o.PayerAddress),
			Chain:                 "solana",
			PayerAddress:          o.PayerAddress,
		}
	}
	return snapshot
}

func rejected(operation string, httpStatus int, msg string) *orderlifecycle.ProviderError {
	return &orderlifecycle.ProviderError{Operation: operation, HTTPStatus: httpStatus, Message: msg}
}
