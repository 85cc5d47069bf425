package orderlifecycle

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
)

const (
	DefaultWatchdogInterval   = time.Second
	DefaultPollInterval       = 2500 * time.Millisecond
	DefaultMaxSigningAttempts = 3
	DefaultMaxPollAttempts    = 120
)

type Config struct {
	WatchdogInterval   time.Duration
	PollInterval       time.Duration
	MaxSigningAttempts int
	// MaxPollAttempts stops the poll loop after that many fetches. Zero means no limit.
	MaxPollAttempts int
	CollectionID    string
	// Collections is shared by all controllers of a process. When nil, the controller keeps its own.
	Collections *Collections
	Email       string
	RPCEndpoint string
}

func DefaultConfig() Config {
	return Config{
		WatchdogInterval:   DefaultWatchdogInterval,
		PollInterval:       DefaultPollInterval,
		MaxSigningAttempts: DefaultMaxSigningAttempts,
		MaxPollAttempts:    DefaultMaxPollAttempts,
	}
}

func (cfg Config) withDefaults() Config {
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = DefaultWatchdogInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxSigningAttempts < 1 {
		cfg.MaxSigningAttempts = DefaultMaxSigningAttempts
	}
	if cfg.MaxPollAttempts < 0 {
		cfg.MaxPollAttempts = 0
	}
	return cfg
}

// Listener is called after every state transition, outside of the controller's lock.
type Listener func(c context.Context, change StateChange)

// Controller drives the single active order of one checkout session.
type Controller struct {
	config   Config
	provider Provider
	signer   Signer
	clock    mytime.Clock
	logger   mylog.Logger

	collections *Collections

	mutex     sync.Mutex
	active    *orderEntry
	listeners []Listener
	closed    bool
	loops     sync.WaitGroup
}

type orderEntry struct {
	order     Order
	ctx       context.Context
	stop      context.CancelFunc
	fetching  bool
	cancelled bool
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewController(cfg Config, provider Provider, signer Signer, clock mytime.Clock, logger mylog.Logger) *Controller {
	cfg = cfg.withDefaults()
	collections := cfg.Collections
	if collections == nil {
		collections = NewCollections(cfg.CollectionID, provider, logger)
	}
	return &Controller{
		config:      cfg,
		provider:    provider,
		signer:      signer,
		clock:       clock,
		logger:      logger,
		collections: collections,
	}
}

func (ctl *Controller) Subscribe(listener Listener) {
	ctl.mutex.Lock()
	defer ctl.mutex.Unlock()

	ctl.listeners = append(ctl.listeners, listener)
}

// CreateOrder discards the active order, if any, and asks the provider for a new one.
func (ctl *Controller) CreateOrder(c context.Context, req CreateOrderRequest) (Order, error) {
	if req.Email == "" {
		req.Email = ctl.config.Email
	}
	err := validateCreateOrderRequest(req)
	if err != nil {
		return Order{}, err
	}

	ctl.mutex.Lock()
	if ctl.closed {
		ctl.mutex.Unlock()
		return Order{}, ErrControllerClosed
	}
	previous := ctl.discardActive()
	ctl.mutex.Unlock()

	if previous != nil {
		ctl.logger.Log(c, previous.UID, mylog.SeverityInfo, "Discarded order %s in state %s", previous.UID, previous.State)
	}

	req.CollectionID, err = ctl.collections.Get(c)
	if err != nil {
		return Order{}, err
	}

	created, err := ctl.provider.CreateOrder(c, req)
	if err != nil {
		return Order{}, asProviderError("create order", err)
	}
	if created.OrderUID == "" || created.ClientSecret == "" {
		return Order{}, &ProviderError{Operation: "create order", HTTPStatus: http.StatusBadGateway, Message: "order without id or client secret"}
	}

	now := ctl.clock.Now()
	entry := &orderEntry{
		order: Order{
			UID:          created.OrderUID,
			ClientSecret: created.ClientSecret,
			State:        StateCreated,
			CreatedAt:    now,
			LastModified: now,
		},
	}
	entry.ctx, entry.stop = context.WithCancel(context.Background())

	ctl.mutex.Lock()
	if ctl.closed {
		ctl.mutex.Unlock()
		entry.stop()
		return Order{}, ErrControllerClosed
	}
	// a concurrent CreateOrder may have won the race
	ctl.discardActive()
	ctl.active = entry
	change, createErr := ctl.applyCreated(entry, created.Snapshot)
	order := entry.order.clone()
	ctl.mutex.Unlock()

	ctl.notify(c, change)

	if createErr != nil {
		ctl.logger.Log(c, order.UID, mylog.SeverityError, "Order %s failed on creation: %s", order.UID, createErr)
		return order, createErr
	}

	ctl.logger.Log(c, order.UID, mylog.SeverityInfo, "Created order %s in state %s", order.UID, order.State)

	return order, nil
}

// applyCreated moves a freshly created order out of the created state. Caller holds the lock.
func (ctl *Controller) applyCreated(entry *orderEntry, snapshot OrderSnapshot) (StateChange, error) {
	order := &entry.order
	if snapshot.Quote != nil {
		q := *snapshot.Quote
		order.Quote = &q
	}
	if snapshot.Preparation != nil {
		order.Preparation = copyPreparation(snapshot.Preparation)
	}

	var createErr error
	target := StateQuoted
	switch {
	case snapshot.PaymentStatus == PaymentStatusFailed:
		target = StateFailed
		order.FailureReason = failureReason(snapshot)
	case order.Preparation != nil:
		target = StateAwaitingPayment
	case order.Quote != nil:
		target = StateQuoted
	default:
		target = StateFailed
		createErr = &ProviderError{Operation: "create order", HTTPStatus: http.StatusBadGateway, Message: "order carries neither a quote nor a payment preparation"}
		order.FailureReason = createErr.Error()
	}

	change, err := ctl.transition(entry, target)
	if err != nil {
		return StateChange{}, err
	}

	ctl.armWatchdog(entry)
	ctl.armPolling(entry)

	return change, createErr
}

// SignAndSubmit hands the prepared transaction to the signer. Only one signing attempt runs at a time.
func (ctl *Controller) SignAndSubmit(c context.Context, orderUID string) (SignatureResult, error) {
	ctl.mutex.Lock()
	entry, err := ctl.lookup(orderUID)
	if err != nil {
		ctl.mutex.Unlock()
		return SignatureResult{}, err
	}

	order := &entry.order
	switch {
	case order.State == StateSigning:
		ctl.mutex.Unlock()
		return SignatureResult{}, ErrSigningInProgress
	case order.State != StateAwaitingPayment || order.Preparation == nil:
		state := order.State
		ctl.mutex.Unlock()
		return SignatureResult{}, &InvalidStateError{Operation: "sign", State: state}
	}

	if order.Quote != nil && mytime.IsExpired(order.Quote.ExpiresAt, ctl.clock.Now()) {
		expErr := &ExpirationError{OrderUID: order.UID, ExpiresAt: order.Quote.ExpiresAt}
		order.FailureReason = expErr.Error()
		change, err := ctl.transition(entry, StateExpired)
		ctl.mutex.Unlock()

		if err != nil {
			return SignatureResult{}, err
		}
		ctl.notify(c, change)
		return SignatureResult{OrderUID: orderUID, State: StateExpired}, expErr
	}

	order.SigningAttempts++
	attempt := order.SigningAttempts
	transaction := append([]byte(nil), order.Preparation.SerializedTransaction...)
	change, err := ctl.transition(entry, StateSigning)
	ctl.mutex.Unlock()

	if err != nil {
		return SignatureResult{}, err
	}
	ctl.notify(c, change)

	ctl.logger.Log(c, orderUID, mylog.SeverityInfo, "Signing attempt %d of %d for order %s", attempt, ctl.config.MaxSigningAttempts, orderUID)

	signature, signErr := ctl.signer.SignAndSubmit(c, transaction, ctl.config.RPCEndpoint)
	if signErr == nil && signature == "" {
		signErr = errors.New("signer returned no signature")
	}

	return ctl.completeSigning(c, entry, attempt, signature, signErr)
}

func (ctl *Controller) completeSigning(c context.Context, entry *orderEntry, attempt int, signature string, signErr error) (SignatureResult, error) {
	ctl.mutex.Lock()
	order := &entry.order
	result := SignatureResult{OrderUID: order.UID, Signature: signature}

	if order.State != StateSigning {
		// the provider ended the order while the signer was busy
		if signErr == nil {
			order.Signature = signature
			ctl.touch(entry)
		}
		result.State = order.State
		ctl.mutex.Unlock()

		if signErr != nil {
			return result, &SigningError{Attempt: attempt, MaxAttempts: ctl.config.MaxSigningAttempts, Err: signErr}
		}
		return result, nil
	}

	if signErr != nil {
		sigErr := &SigningError{Attempt: attempt, MaxAttempts: ctl.config.MaxSigningAttempts, Err: signErr}
		target := StateAwaitingPayment
		if sigErr.Exhausted() {
			target = StateFailed
			order.FailureReason = sigErr.Error()
		}
		change, err := ctl.transition(entry, target)
		result.State = order.State
		ctl.mutex.Unlock()

		if err != nil {
			return result, err
		}
		ctl.notify(c, change)
		ctl.logger.Log(c, result.OrderUID, mylog.SeverityWarn, "Order %s: %s", result.OrderUID, sigErr)

		return result, sigErr
	}

	order.Signature = signature
	change, err := ctl.transition(entry, StateProcessing)
	if err == nil {
		ctl.armPolling(entry)
	}
	result.State = order.State
	ctl.mutex.Unlock()

	if err != nil {
		return result, err
	}
	ctl.notify(c, change)
	ctl.logger.Log(c, result.OrderUID, mylog.SeverityInfo, "Order %s submitted with signature %s", result.OrderUID, signature)

	return result, nil
}

// PollOnce fetches the provider status of the order once and applies it.
func (ctl *Controller) PollOnce(c context.Context, orderUID string) (Order, error) {
	ctl.mutex.Lock()
	entry, err := ctl.lookup(orderUID)
	ctl.mutex.Unlock()
	if err != nil {
		return Order{}, err
	}

	return ctl.fetchStatus(c, entry, false)
}

func (ctl *Controller) UpdatePayerAddress(c context.Context, orderUID string, payerAddress string) (Order, error) {
	if payerAddress == "" {
		return Order{}, &ValidationError{Field: "payerAddress", Message: "is required"}
	}

	ctl.mutex.Lock()
	entry, err := ctl.lookup(orderUID)
	if err != nil {
		ctl.mutex.Unlock()
		return Order{}, err
	}
	if state := entry.order.State; state != StateQuoted && state != StateAwaitingPayment {
		ctl.mutex.Unlock()
		return Order{}, &InvalidStateError{Operation: "update the payer address of", State: state}
	}
	ctl.mutex.Unlock()

	snapshot, err := ctl.provider.UpdatePayerAddress(c, orderUID, payerAddress)
	if err != nil {
		return Order{}, asProviderError("update payer address", err)
	}

	ctl.mutex.Lock()
	if ctl.active != entry {
		ctl.mutex.Unlock()
		return Order{}, ErrOrderNotFound
	}
	changes := ctl.applySnapshot(c, entry, snapshot)
	ctl.touch(entry)
	order := entry.order.clone()
	ctl.mutex.Unlock()

	ctl.notify(c, changes...)

	ctl.logger.Log(c, orderUID, mylog.SeverityInfo, "Updated payer address of order %s", orderUID)

	return order, nil
}

// Cancel stops the watchdog and the poll loop of the order. The state is left as is.
func (ctl *Controller) Cancel(c context.Context, orderUID string) error {
	ctl.mutex.Lock()
	entry, err := ctl.lookup(orderUID)
	if err != nil {
		ctl.mutex.Unlock()
		return err
	}

	wasRunning := entry.order.WatchdogArmed || entry.order.PollingArmed
	entry.cancelled = true
	ctl.stopLoops(entry)
	if wasRunning {
		ctl.touch(entry)
	}
	state := entry.order.State
	ctl.mutex.Unlock()

	if wasRunning {
		ctl.logger.Log(c, orderUID, mylog.SeverityInfo, "Cancelled timers of order %s in state %s", orderUID, state)
	}

	return nil
}

func (ctl *Controller) Get(orderUID string) (Order, error) {
	ctl.mutex.Lock()
	defer ctl.mutex.Unlock()

	entry, err := ctl.lookup(orderUID)
	if err != nil {
		return Order{}, err
	}
	return entry.order.clone(), nil
}

// Current returns the active order, if there is one.
func (ctl *Controller) Current() (Order, bool) {
	ctl.mutex.Lock()
	defer ctl.mutex.Unlock()

	if ctl.active == nil {
		return Order{}, false
	}
	return ctl.active.order.clone(), true
}

// Close stops the active order and waits until its loops have returned. The controller cannot be used afterwards.
func (ctl *Controller) Close() {
	ctl.mutex.Lock()
	ctl.closed = true
	if ctl.active != nil {
		ctl.active.cancelled = true
		ctl.stopLoops(ctl.active)
	}
	ctl.mutex.Unlock()

	ctl.loops.Wait()
}

// lookup only knows the active order: a discarded order is gone. Caller holds the lock.
func (ctl *Controller) lookup(orderUID string) (*orderEntry, error) {
	if ctl.active == nil || ctl.active.order.UID != orderUID {
		return nil, ErrOrderNotFound
	}
	return ctl.active, nil
}

// discardActive stops the loops of the active order and forgets it. Caller holds the lock.
func (ctl *Controller) discardActive() *Order {
	if ctl.active == nil {
		return nil
	}
	previous := ctl.active
	previous.cancelled = true
	ctl.stopLoops(previous)
	ctl.active = nil

	order := previous.order.clone()
	return &order
}

// transition is the only place where the state of an order changes. Caller holds the lock.
func (ctl *Controller) transition(entry *orderEntry, to State) (StateChange, error) {
	from := entry.order.State
	err := validateTransition(from, to)
	if err != nil {
		return StateChange{}, err
	}

	entry.order.State = to
	if to.IsTerminal() {
		ctl.stopLoops(entry)
	}
	ctl.touch(entry)

	return StateChange{From: from, To: to, Order: entry.order.clone()}, nil
}

func (ctl *Controller) touch(entry *orderEntry) {
	entry.order.LastModified = ctl.clock.Now()
	entry.order.Version++
}

func (ctl *Controller) notify(c context.Context, changes ...StateChange) {
	ctl.mutex.Lock()
	listeners := append([]Listener(nil), ctl.listeners...)
	ctl.mutex.Unlock()

	// listeners outlive the request that caused the change
	c = context.WithoutCancel(c)
	for _, change := range changes {
		if change.To == "" {
			continue
		}
		ctl.logger.Log(c, change.Order.UID, mylog.SeverityInfo, "Order %s: %s -> %s", change.Order.UID, change.From, change.To)
		for _, l := range listeners {
			l(c, change)
		}
	}
}

func asProviderError(operation string, err error) error {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		if providerErr.Operation == "" {
			providerErr.Operation = operation
		}
		return providerErr
	}
	return &ProviderError{Operation: operation, Message: err.Error()}
}

func copyPreparation(p *PaymentPreparation) *PaymentPreparation {
	c := *p
	c.SerializedTransaction = append([]byte(nil), p.SerializedTransaction...)
	return &c
}

func failureReason(snapshot OrderSnapshot) string {
	if snapshot.FailureReason != "" {
		return snapshot.FailureReason
	}
	return "provider reported payment failure"
}
