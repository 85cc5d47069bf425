package orderlifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
)

const (
	orderUID     = "order-1"
	clientSecret = "secret-1"
	rpcEndpoint  = "https://api.devnet.solana.com"
	pollInterval = 2500 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = time.Millisecond
)

var (
	address = ShippingAddress{
		Name:       "Marc Grol",
		Line1:      "My street 79",
		City:       "New York",
		State:      "NY",
		PostalCode: "10001",
		Country:    "US",
	}
	transaction = []byte{1, 2, 3, 4}
	preparation = &PaymentPreparation{
		SerializedTransaction: transaction,
		Chain:                 "solana",
		PayerAddress:          "BrEi8R4Mmg5ib4fkBfTp8c3Q8bJvTkRiYzWZzAMnwK5n",
	}
)

func createRequest() CreateOrderRequest {
	return CreateOrderRequest{
		Email:           "my@email.com",
		ShippingAddress: address,
		LineItems: []LineItem{
			{ProductLocator: "amazon:B01DFKC2SO", Quantity: 2, UnitPrice: decimal.RequireFromString("0.50")},
		},
		Currency:     CurrencyUSDC,
		PayerAddress: preparation.PayerAddress,
	}
}

func quoteExpiringIn(d time.Duration) *Quote {
	return &Quote{
		Amount:    decimal.RequireFromString("1.00"),
		Currency:  "usdc",
		ExpiresAt: mytime.ExampleTime.Add(d),
	}
}

func quotedOrder(d time.Duration) CreatedOrder {
	return CreatedOrder{
		OrderUID:     orderUID,
		ClientSecret: clientSecret,
		Snapshot:     OrderSnapshot{Phase: "quote", Quote: quoteExpiringIn(d)},
	}
}

func payableOrder(d time.Duration) CreatedOrder {
	return CreatedOrder{
		OrderUID:     orderUID,
		ClientSecret: clientSecret,
		Snapshot:     OrderSnapshot{Phase: "payment", PaymentStatus: "awaiting-payment", Quote: quoteExpiringIn(d), Preparation: preparation},
	}
}

func stateOf(sut *Controller) State {
	order, found := sut.Current()
	if !found {
		return ""
	}
	return order.State
}

func TestLifecycle(t *testing.T) {
	c := context.TODO()

	t.Run("Quote expires without provider update", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(5*time.Second), nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{Phase: "quote", Quote: quoteExpiringIn(5 * time.Second)}, nil).AnyTimes()

		order, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)
		assert.Equal(t, StateQuoted, order.State)
		assert.True(t, order.WatchdogArmed)
		assert.True(t, order.PollingArmed)

		// when
		clock.Advance(6 * time.Second)

		// then
		assert.Eventually(t, func() bool { return stateOf(sut) == StateExpired }, waitFor, tick)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 0 }, waitFor, tick)
		order, _ = sut.Current()
		assert.False(t, order.PollingArmed)
		assert.False(t, order.WatchdogArmed)
		assert.Contains(t, order.FailureReason, "expired")
	})

	t.Run("Signed order completes on next poll", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, signer, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil)
		signer.EXPECT().SignAndSubmit(gomock.Any(), transaction, rpcEndpoint).Return("5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnb", nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{Phase: "completed", PaymentStatus: PaymentStatusCompleted}, nil).Times(1)

		order, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)
		assert.Equal(t, StateAwaitingPayment, order.State)

		// when
		result, err := sut.SignAndSubmit(c, orderUID)

		// then
		assert.NoError(t, err)
		assert.Equal(t, StateProcessing, result.State)
		assert.Equal(t, "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnb", result.Signature)

		// when
		clock.Advance(pollInterval)

		// then
		assert.Eventually(t, func() bool { return stateOf(sut) == StateCompleted }, waitFor, tick)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 0 }, waitFor, tick)
		order, _ = sut.Current()
		assert.Equal(t, 1, order.SigningAttempts)
		assert.Equal(t, result.Signature, order.Signature)
	})

	t.Run("Second sign while signing is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, signer, _ := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil)

		started := make(chan struct{})
		release := make(chan struct{})
		signer.EXPECT().SignAndSubmit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, tx []byte, endpoint string) (string, error) {
			close(started)
			<-release
			return "sig-1", nil
		}).Times(1)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		done := make(chan error)
		go func() {
			_, err := sut.SignAndSubmit(c, orderUID)
			done <- err
		}()
		<-started
		assert.Equal(t, StateSigning, stateOf(sut))

		// when
		_, err = sut.SignAndSubmit(c, orderUID)

		// then
		assert.ErrorIs(t, err, ErrSigningInProgress)

		close(release)
		assert.NoError(t, <-done)
		assert.Equal(t, StateProcessing, stateOf(sut))
	})

	t.Run("Poll failures do not fail the order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil)
		gomock.InOrder(
			provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{}, errors.New("connection reset")).Times(3),
			provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{PaymentStatus: PaymentStatusFailed, FailureReason: "insufficient funds"}, nil),
		)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		for i := 1; i <= 3; i++ {
			// when
			clock.Advance(pollInterval)

			// then
			assert.Eventually(t, func() bool {
				order, _ := sut.Current()
				return order.PollAttemptCount == i
			}, waitFor, tick)
			order, _ := sut.Current()
			assert.Equal(t, StateAwaitingPayment, order.State)
			assert.Equal(t, i, order.ConsecutivePollFailures)
			assert.Equal(t, "connection reset", order.LastPollError)
			assert.True(t, order.PollingArmed)
		}

		// when
		clock.Advance(pollInterval)

		// then
		assert.Eventually(t, func() bool { return stateOf(sut) == StateFailed }, waitFor, tick)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 0 }, waitFor, tick)
		order, _ := sut.Current()
		assert.Equal(t, "insufficient funds", order.FailureReason)
		assert.Equal(t, 0, order.ConsecutivePollFailures)
	})

	t.Run("Empty cart is rejected before the provider is called", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, _, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		req := createRequest()
		req.LineItems = nil

		// when
		_, err := sut.CreateOrder(c, req)

		// then
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "lineItems", validationErr.Field)
		assert.Equal(t, 0, clock.ActiveTickers())
		_, found := sut.Current()
		assert.False(t, found)
	})
}

func TestCreateOrder(t *testing.T) {
	c := context.TODO()

	t.Run("Invalid shipping address", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, _, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		req := createRequest()
		req.ShippingAddress = ShippingAddress{}

		// when
		_, err := sut.CreateOrder(c, req)

		// then
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "shippingAddress.name", validationErr.Field)
	})

	t.Run("Unsupported currency", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, _, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		req := createRequest()
		req.Currency = "eth"

		// when
		_, err := sut.CreateOrder(c, req)

		// then
		assert.EqualError(t, err, `invalid currency: unsupported currency "eth"`)
	})

	t.Run("Provider error is surfaced", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(CreatedOrder{}, &ProviderError{HTTPStatus: 400, Message: "payerAddress is invalid"})

		// when
		_, err := sut.CreateOrder(c, createRequest())

		// then
		var providerErr *ProviderError
		assert.ErrorAs(t, err, &providerErr)
		assert.Equal(t, 400, providerErr.HTTPStatus)
		assert.Equal(t, "payerAddress is invalid", providerErr.Message)
		assert.Equal(t, "create order", providerErr.Operation)
		assert.Equal(t, 0, clock.ActiveTickers())
	})

	t.Run("Snapshot without quote or preparation fails the order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(CreatedOrder{OrderUID: orderUID, ClientSecret: clientSecret}, nil)

		// when
		order, err := sut.CreateOrder(c, createRequest())

		// then
		var providerErr *ProviderError
		assert.ErrorAs(t, err, &providerErr)
		assert.Equal(t, StateFailed, order.State)
		assert.Equal(t, 0, clock.ActiveTickers())
	})

	t.Run("Provider reports failure on creation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		created := quotedOrder(time.Minute)
		created.Snapshot.PaymentStatus = PaymentStatusFailed
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(created, nil)

		// when
		order, err := sut.CreateOrder(c, createRequest())

		// then
		assert.NoError(t, err)
		assert.Equal(t, StateFailed, order.State)
		assert.False(t, order.WatchdogArmed)
	})

	t.Run("Collection is created once and reused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		cfg := testConfig()
		cfg.CollectionID = ""
		sut, provider, _, _ := setup(ctrl, cfg)
		defer sut.Close()
		provider.EXPECT().CreateCollection(gomock.Any()).Return("collection-42", nil).Times(1)
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req CreateOrderRequest) (CreatedOrder, error) {
			assert.Equal(t, "collection-42", req.CollectionID)
			return quotedOrder(time.Minute), nil
		}).Times(2)

		// when
		_, err1 := sut.CreateOrder(c, createRequest())
		_, err2 := sut.CreateOrder(c, createRequest())

		// then
		assert.NoError(t, err1)
		assert.NoError(t, err2)
	})

	t.Run("Collection is shared between controllers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		cfg := testConfig()
		cfg.CollectionID = ""
		first, provider, signer, clock := setup(ctrl, cfg)
		defer first.Close()
		cfg.Collections = first.collections
		second := NewController(cfg, provider, signer, clock, mylog.New("orderlifecycle"))
		defer second.Close()

		provider.EXPECT().CreateCollection(gomock.Any()).Return("collection-42", nil).Times(1)
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req CreateOrderRequest) (CreatedOrder, error) {
			assert.Equal(t, "collection-42", req.CollectionID)
			return quotedOrder(time.Minute), nil
		}).Times(2)

		// when
		_, err1 := first.CreateOrder(c, createRequest())
		_, err2 := second.CreateOrder(c, createRequest())

		// then
		assert.NoError(t, err1)
		assert.NoError(t, err2)
	})

	t.Run("Failed collection creation is retried on the next order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		cfg := testConfig()
		cfg.CollectionID = ""
		sut, provider, _, _ := setup(ctrl, cfg)
		defer sut.Close()
		gomock.InOrder(
			provider.EXPECT().CreateCollection(gomock.Any()).Return("", errors.New("connection refused")),
			provider.EXPECT().CreateCollection(gomock.Any()).Return("collection-42", nil),
		)
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(time.Minute), nil)

		// when
		_, err1 := sut.CreateOrder(c, createRequest())
		_, err2 := sut.CreateOrder(c, createRequest())

		// then
		var providerErr *ProviderError
		assert.ErrorAs(t, err1, &providerErr)
		assert.NoError(t, err2)
	})

	t.Run("Default email is used", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		cfg := testConfig()
		cfg.Email = "shop@email.com"
		sut, provider, _, _ := setup(ctrl, cfg)
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req CreateOrderRequest) (CreatedOrder, error) {
			assert.Equal(t, "shop@email.com", req.Email)
			return quotedOrder(time.Minute), nil
		})
		req := createRequest()
		req.Email = ""

		// when
		_, err := sut.CreateOrder(c, req)

		// then
		assert.NoError(t, err)
	})

	t.Run("New order stops the previous one", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		second := payableOrder(10 * time.Minute)
		second.OrderUID = "order-2"
		second.ClientSecret = "secret-2"
		gomock.InOrder(
			provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil),
			provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(second, nil),
		)
		provider.EXPECT().GetOrderStatus(gomock.Any(), "order-2", "secret-2").Return(OrderSnapshot{PaymentStatus: "awaiting-payment"}, nil).AnyTimes()

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)
		assert.Equal(t, 2, clock.ActiveTickers())

		// when
		order, err := sut.CreateOrder(c, createRequest())

		// then
		assert.NoError(t, err)
		assert.Equal(t, "order-2", order.UID)
		_, err = sut.Get(orderUID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 2 }, waitFor, tick)

		// the old order is never polled again
		clock.Advance(3 * pollInterval)
		current, _ := sut.Current()
		assert.Equal(t, "order-2", current.UID)
	})
}

func TestSignAndSubmit(t *testing.T) {
	c := context.TODO()

	t.Run("Signing failures exhaust the retry budget", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, signer, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil)
		signer.EXPECT().SignAndSubmit(gomock.Any(), transaction, rpcEndpoint).Return("", errors.New("insufficient funds")).Times(3)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		for attempt := 1; attempt <= 2; attempt++ {
			// when
			result, err := sut.SignAndSubmit(c, orderUID)

			// then
			var signingErr *SigningError
			assert.ErrorAs(t, err, &signingErr)
			assert.Equal(t, attempt, signingErr.Attempt)
			assert.False(t, signingErr.Exhausted())
			assert.Equal(t, StateAwaitingPayment, result.State)
		}

		// when
		result, err := sut.SignAndSubmit(c, orderUID)

		// then
		var signingErr *SigningError
		assert.ErrorAs(t, err, &signingErr)
		assert.True(t, signingErr.Exhausted())
		assert.Equal(t, StateFailed, result.State)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 0 }, waitFor, tick)

		// when
		_, err = sut.SignAndSubmit(c, orderUID)

		// then
		var stateErr *InvalidStateError
		assert.ErrorAs(t, err, &stateErr)
		assert.Equal(t, StateFailed, stateErr.State)
	})

	t.Run("Empty signature is a signing failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, signer, _ := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil)
		signer.EXPECT().SignAndSubmit(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		result, err := sut.SignAndSubmit(c, orderUID)

		// then
		var signingErr *SigningError
		assert.ErrorAs(t, err, &signingErr)
		assert.Equal(t, StateAwaitingPayment, result.State)
	})

	t.Run("Sign a quote without transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(time.Minute), nil)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		_, err = sut.SignAndSubmit(c, orderUID)

		// then
		var stateErr *InvalidStateError
		assert.ErrorAs(t, err, &stateErr)
		assert.Equal(t, StateQuoted, stateErr.State)
	})

	t.Run("Sign an expired quote", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		cfg := testConfig()
		cfg.WatchdogInterval = time.Hour
		sut, provider, _, clock := setup(ctrl, cfg)
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(5*time.Second), nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{PaymentStatus: "awaiting-payment"}, nil).AnyTimes()

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)
		clock.Advance(6 * time.Second)

		// when
		result, err := sut.SignAndSubmit(c, orderUID)

		// then
		var expErr *ExpirationError
		assert.ErrorAs(t, err, &expErr)
		assert.Equal(t, StateExpired, result.State)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 0 }, waitFor, tick)
	})

	t.Run("Watchdog waits for signing to resolve", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, signer, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(5*time.Second), nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{PaymentStatus: "awaiting-payment"}, nil).AnyTimes()

		started := make(chan struct{})
		release := make(chan struct{})
		signer.EXPECT().SignAndSubmit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, tx []byte, endpoint string) (string, error) {
			close(started)
			<-release
			return "sig-1", nil
		})

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		done := make(chan SignatureResult)
		go func() {
			result, _ := sut.SignAndSubmit(c, orderUID)
			done <- result
		}()
		<-started

		// when
		clock.Advance(10 * time.Second)

		// then
		assert.Never(t, func() bool { return stateOf(sut) != StateSigning }, 100*time.Millisecond, tick)

		// when
		close(release)
		result := <-done
		assert.Equal(t, StateProcessing, result.State)
		clock.Advance(time.Second)

		// then
		assert.Eventually(t, func() bool { return stateOf(sut) == StateExpired }, waitFor, tick)
	})

	t.Run("Unknown order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, _, _, _ := setup(ctrl, testConfig())
		defer sut.Close()

		// when
		_, err := sut.SignAndSubmit(c, "unknown")

		// then
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestPollOnce(t *testing.T) {
	c := context.TODO()

	t.Run("At most one status fetch is outstanding", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil)

		var inFlight, maxInFlight, calls int32
		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).DoAndReturn(func(c context.Context, uid, secret string) (OrderSnapshot, error) {
			atomic.AddInt32(&calls, 1)
			n := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
					break
				}
			}
			once.Do(func() { close(started) })
			<-release
			return OrderSnapshot{PaymentStatus: "awaiting-payment"}, nil
		}).AnyTimes()

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		done := make(chan error)
		go func() {
			_, err := sut.PollOnce(c, orderUID)
			done <- err
		}()
		<-started

		// when
		_, err = sut.PollOnce(c, orderUID)
		clock.Advance(3 * pollInterval)

		// then
		assert.ErrorIs(t, err, ErrPollInFlight)
		assert.Never(t, func() bool { return atomic.LoadInt32(&calls) > 1 }, 100*time.Millisecond, tick)

		close(release)
		assert.NoError(t, <-done)
		assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	})

	t.Run("Preparation moves a quote to awaiting payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		changes := []StateChange{}
		var mutex sync.Mutex
		sut.Subscribe(func(c context.Context, change StateChange) {
			mutex.Lock()
			defer mutex.Unlock()
			changes = append(changes, change)
		})
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(time.Minute), nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{Phase: "payment", Quote: quoteExpiringIn(time.Minute), Preparation: preparation}, nil)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		order, err := sut.PollOnce(c, orderUID)

		// then
		assert.NoError(t, err)
		assert.Equal(t, StateAwaitingPayment, order.State)
		assert.Equal(t, transaction, order.Preparation.SerializedTransaction)
		assert.Equal(t, 1, order.PollAttemptCount)
		assert.Equal(t, mytime.ExampleTime, order.LastPolledAt)

		mutex.Lock()
		defer mutex.Unlock()
		assert.Len(t, changes, 2)
		assert.Equal(t, StateCreated, changes[0].From)
		assert.Equal(t, StateQuoted, changes[0].To)
		assert.Equal(t, StateQuoted, changes[1].From)
		assert.Equal(t, StateAwaitingPayment, changes[1].To)
		assert.Less(t, changes[0].Order.Version, changes[1].Order.Version)
	})

	t.Run("Quote expiry is never changed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(time.Minute), nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{Phase: "quote", Quote: quoteExpiringIn(time.Hour)}, nil)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		order, err := sut.PollOnce(c, orderUID)

		// then
		assert.NoError(t, err)
		assert.Equal(t, mytime.ExampleTime.Add(time.Minute), order.Quote.ExpiresAt)
		assert.Equal(t, time.Minute, order.Remaining(mytime.ExampleTime))
	})

	t.Run("Completed is refused for an unsigned order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(time.Minute), nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{PaymentStatus: PaymentStatusCompleted}, nil)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		order, err := sut.PollOnce(c, orderUID)

		// then
		assert.NoError(t, err)
		assert.Equal(t, StateQuoted, order.State)
	})

	t.Run("Poll attempts are bounded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		cfg := testConfig()
		cfg.MaxPollAttempts = 2
		sut, provider, _, clock := setup(ctrl, cfg)
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(10*time.Minute), nil)
		provider.EXPECT().GetOrderStatus(gomock.Any(), orderUID, clientSecret).Return(OrderSnapshot{PaymentStatus: "awaiting-payment"}, nil).Times(3)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		for i := 1; i <= 2; i++ {
			clock.Advance(pollInterval)
			assert.Eventually(t, func() bool {
				order, _ := sut.Current()
				return order.PollAttemptCount == i
			}, waitFor, tick)
		}

		// then
		assert.Eventually(t, func() bool {
			order, _ := sut.Current()
			return !order.PollingArmed
		}, waitFor, tick)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 1 }, waitFor, tick)
		assert.Equal(t, StateAwaitingPayment, stateOf(sut))

		// a caller can still poll
		order, err := sut.PollOnce(c, orderUID)
		assert.NoError(t, err)
		assert.Equal(t, 3, order.PollAttemptCount)
	})
}

func TestUpdatePayerAddress(t *testing.T) {
	c := context.TODO()

	t.Run("Payer update prepares the transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(time.Minute), nil)
		provider.EXPECT().UpdatePayerAddress(gomock.Any(), orderUID, "new-payer").Return(OrderSnapshot{Preparation: preparation}, nil)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		order, err := sut.UpdatePayerAddress(c, orderUID, "new-payer")

		// then
		assert.NoError(t, err)
		assert.Equal(t, StateAwaitingPayment, order.State)
		assert.True(t, order.PollingArmed)
	})

	t.Run("Provider failure leaves the order as is", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, _ := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(quotedOrder(time.Minute), nil)
		provider.EXPECT().UpdatePayerAddress(gomock.Any(), orderUID, "new-payer").Return(OrderSnapshot{}, errors.New("timeout"))

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		_, err = sut.UpdatePayerAddress(c, orderUID, "new-payer")

		// then
		var providerErr *ProviderError
		assert.ErrorAs(t, err, &providerErr)
		assert.Equal(t, "update payer address", providerErr.Operation)
		assert.Equal(t, StateQuoted, stateOf(sut))
	})

	t.Run("Empty payer address", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, _, _, _ := setup(ctrl, testConfig())
		defer sut.Close()

		// when
		_, err := sut.UpdatePayerAddress(c, orderUID, "")

		// then
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestCancel(t *testing.T) {
	c := context.TODO()

	t.Run("Cancel twice stops timers and keeps state", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		defer sut.Close()
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(5*time.Second), nil)

		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		err1 := sut.Cancel(c, orderUID)
		first, _ := sut.Current()
		err2 := sut.Cancel(c, orderUID)
		second, _ := sut.Current()

		// then
		assert.NoError(t, err1)
		assert.NoError(t, err2)
		assert.Equal(t, first, second)
		assert.Equal(t, StateAwaitingPayment, second.State)
		assert.False(t, second.WatchdogArmed)
		assert.False(t, second.PollingArmed)
		assert.Eventually(t, func() bool { return clock.ActiveTickers() == 0 }, waitFor, tick)

		// no watchdog and no poll loop anymore: the expired quote is left alone
		clock.Advance(time.Minute)
		assert.Never(t, func() bool { return stateOf(sut) != StateAwaitingPayment }, 50*time.Millisecond, tick)
	})

	t.Run("Close stops everything", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		sut, provider, _, clock := setup(ctrl, testConfig())
		provider.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Return(payableOrder(time.Minute), nil)
		_, err := sut.CreateOrder(c, createRequest())
		assert.NoError(t, err)

		// when
		sut.Close()

		// then
		assert.Equal(t, 0, clock.ActiveTickers())
		_, err = sut.CreateOrder(c, createRequest())
		assert.ErrorIs(t, err, ErrControllerClosed)
	})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CollectionID = "collection-1"
	cfg.RPCEndpoint = rpcEndpoint
	return cfg
}

func setup(ctrl *gomock.Controller, cfg Config) (*Controller, *MockProvider, *MockSigner, *mytime.FakeClock) {
	provider := NewMockProvider(ctrl)
	signer := NewMockSigner(ctrl)
	clock := mytime.NewFakeClock(mytime.ExampleTime)

	return NewController(cfg, provider, signer, clock, mylog.New("orderlifecycle")), provider, signer, clock
}
