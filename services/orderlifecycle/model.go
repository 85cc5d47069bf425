package orderlifecycle

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MarcGrol/cryptocheckout/lib/mytime"
)

type State string

const (
	StateCreated         State = "created"
	StateQuoted          State = "quoted"
	StateAwaitingPayment State = "awaiting_payment"
	StateSigning         State = "signing"
	StateProcessing      State = "processing"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
	StateExpired         State = "expired"
)

func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateExpired
}

func (s State) String() string {
	return string(s)
}

type Currency string

const (
	CurrencySOL  Currency = "sol"
	CurrencyUSDC Currency = "usdc"
)

func (c Currency) IsValid() bool {
	return c == CurrencySOL || c == CurrencyUSDC
}

type Quote struct {
	Amount    decimal.Decimal
	Currency  string
	ExpiresAt time.Time
}

type PaymentPreparation struct {
	SerializedTransaction []byte
	Chain                 string
	PayerAddress          string
}

type ShippingAddress struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

type LineItem struct {
	ProductLocator string
	Quantity       int
	UnitPrice      decimal.Decimal
	TotalPrice     decimal.Decimal
}

// Total returns the explicit total price, or unit price times quantity when no total was given.
func (li LineItem) Total() decimal.Decimal {
	if !li.TotalPrice.IsZero() {
		return li.TotalPrice
	}
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is a point-in-time copy of the order the controller drives. Mutating it has no effect on the controller.
type Order struct {
	UID          string
	ClientSecret string
	State        State
	Quote        *Quote
	Preparation  *PaymentPreparation

	CreatedAt               time.Time
	LastModified            time.Time
	LastPolledAt            time.Time
	PollAttemptCount        int
	ConsecutivePollFailures int
	LastPollError           string
	SigningAttempts         int
	Signature               string
	FailureReason           string
	WatchdogArmed           bool
	PollingArmed            bool
	Version                 int
}

func (o Order) clone() Order {
	c := o
	if o.Quote != nil {
		q := *o.Quote
		c.Quote = &q
	}
	if o.Preparation != nil {
		p := *o.Preparation
		p.SerializedTransaction = append([]byte(nil), o.Preparation.SerializedTransaction...)
		c.Preparation = &p
	}
	return c
}

// Remaining returns how long the quote is still valid. Orders without a quote report zero.
func (o Order) Remaining(now time.Time) time.Duration {
	if o.Quote == nil {
		return 0
	}
	return mytime.Remaining(o.Quote.ExpiresAt, now)
}

type SignatureResult struct {
	OrderUID  string
	Signature string
	State     State
}

// StateChange is handed to listeners after every transition. Order.Version orders changes of the same order.
type StateChange struct {
	From  State
	To    State
	Order Order
}
