package checkoutcrypto

import (
	"time"

	"github.com/MarcGrol/cryptocheckout/lib/mytime"
	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
	"github.com/MarcGrol/cryptocheckout/services/solanawallet"
)

// CheckoutSession groups the orders a shopper started for one basket.
type CheckoutSession struct {
	UID           string
	CreatedAt     time.Time
	LastModified  *time.Time
	OrderUIDs     []string
	LastOrderUID  string
	LastOutcome   string
	Completed     bool
	CompletedWith string
}

// OrderRecord is the persisted trace of an order. It outlives the in-memory order.
type OrderRecord struct {
	SessionUID       string
	OrderUID         string
	State            string
	Amount           string
	Currency         string
	ExpiresAt        *time.Time
	Signature        string
	FailureReason    string
	SigningAttempts  int
	PollAttemptCount int
	Version          int
	CreatedAt        time.Time
	LastModified     time.Time
}

type OrderView struct {
	SessionUID              string     `json:"sessionUid"`
	OrderUID                string     `json:"orderUid"`
	State                   string     `json:"state"`
	Amount                  string     `json:"amount,omitempty"`
	Currency                string     `json:"currency,omitempty"`
	ExpiresAt               *time.Time `json:"expiresAt,omitempty"`
	RemainingSeconds        int        `json:"remainingSeconds"`
	Remaining               string     `json:"remaining"`
	ReadyToSign             bool       `json:"readyToSign"`
	PayerAddress            string     `json:"payerAddress,omitempty"`
	Signature               string     `json:"signature,omitempty"`
	FailureReason           string     `json:"failureReason,omitempty"`
	SigningAttempts         int        `json:"signingAttempts"`
	PollAttempts            int        `json:"pollAttempts"`
	ConsecutivePollFailures int        `json:"consecutivePollFailures"`
	LastPollError           string     `json:"lastPollError,omitempty"`
	Version                 int        `json:"version"`
	LastModified            time.Time  `json:"lastModified"`
}

type SignView struct {
	OrderUID  string    `json:"orderUid"`
	Signature string    `json:"signature,omitempty"`
	Order     OrderView `json:"order"`
}

type BalanceView struct {
	solanawallet.WalletBalance
	Required   string `json:"required,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Sufficient bool   `json:"sufficient"`
}

func newOrderView(sessionUID string, order orderlifecycle.Order, now time.Time) OrderView {
	remaining := order.Remaining(now)
	if order.State.IsTerminal() {
		remaining = 0
	}

	view := OrderView{
		SessionUID:              sessionUID,
		OrderUID:                order.UID,
		State:                   order.State.String(),
		RemainingSeconds:        int(remaining / time.Second),
		Remaining:               mytime.FormatRemaining(remaining),
		ReadyToSign:             order.State == orderlifecycle.StateAwaitingPayment && order.Preparation != nil,
		Signature:               order.Signature,
		FailureReason:           order.FailureReason,
		SigningAttempts:         order.SigningAttempts,
		PollAttempts:            order.PollAttemptCount,
		ConsecutivePollFailures: order.ConsecutivePollFailures,
		LastPollError:           order.LastPollError,
		Version:                 order.Version,
		LastModified:            order.LastModified,
	}
	if order.Quote != nil {
		expiresAt := order.Quote.ExpiresAt
		view.Amount = order.Quote.Amount.String()
		view.Currency = order.Quote.Currency
		view.ExpiresAt = &expiresAt
	}
	if order.Preparation != nil {
		view.PayerAddress = order.Preparation.PayerAddress
	}
	return view
}

// newOrderViewFromRecord shows an order that is no longer held in memory. Such an order has no running timers.
func newOrderViewFromRecord(record OrderRecord) OrderView {
	return OrderView{
		SessionUID:      record.SessionUID,
		OrderUID:        record.OrderUID,
		State:           record.State,
		Amount:          record.Amount,
		Currency:        record.Currency,
		ExpiresAt:       record.ExpiresAt,
		Remaining:       mytime.FormatRemaining(0),
		Signature:       record.Signature,
		FailureReason:   record.FailureReason,
		SigningAttempts: record.SigningAttempts,
		PollAttempts:    record.PollAttemptCount,
		Version:         record.Version,
		LastModified:    record.LastModified,
	}
}

func newOrderRecord(sessionUID string, order orderlifecycle.Order) OrderRecord {
	record := OrderRecord{
		SessionUID:       sessionUID,
		OrderUID:         order.UID,
		State:            order.State.String(),
		Signature:        order.Signature,
		FailureReason:    order.FailureReason,
		SigningAttempts:  order.SigningAttempts,
		PollAttemptCount: order.PollAttemptCount,
		Version:          order.Version,
		CreatedAt:        order.CreatedAt,
		LastModified:     order.LastModified,
	}
	if order.Quote != nil {
		expiresAt := order.Quote.ExpiresAt
		record.Amount = order.Quote.Amount.String()
		record.Currency = order.Quote.Currency
		record.ExpiresAt = &expiresAt
	}
	return record
}
