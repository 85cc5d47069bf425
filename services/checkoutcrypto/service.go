package checkoutcrypto

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MarcGrol/cryptocheckout/lib/myerrors"
	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mypublisher"
	"github.com/MarcGrol/cryptocheckout/lib/mypubsub"
	"github.com/MarcGrol/cryptocheckout/lib/mystore"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
	"github.com/MarcGrol/cryptocheckout/lib/myuuid"
	"github.com/MarcGrol/cryptocheckout/services/orderevents"
	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

// ControllerFactory creates the controller that drives the orders of a single checkout session.
type ControllerFactory func() *orderlifecycle.Controller

// DefaultIdleRetention is how long the controller of a session is kept after its order stopped moving.
const DefaultIdleRetention = 15 * time.Minute

type sessionController struct {
	controller *orderlifecycle.Controller
	createdAt  time.Time
}

type service struct {
	sync.Mutex
	logger        mylog.Logger
	clock         mytime.Clock
	uuider        myuuid.UUIDer
	newController ControllerFactory
	idleRetention time.Duration
	controllers   map[string]sessionController
	sessionStore  mystore.Store[CheckoutSession]
	orderStore    mystore.Store[OrderRecord]
	publisher     mypublisher.Publisher
	subscriber    mypubsub.PubSub
	balances      BalanceReader
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(logger mylog.Logger, clock mytime.Clock, uuider myuuid.UUIDer, newController ControllerFactory, sessionStore mystore.Store[CheckoutSession],
	orderStore mystore.Store[OrderRecord], publisher mypublisher.Publisher, subscriber mypubsub.PubSub, balances BalanceReader) *service {
	return &service{
		logger:        logger,
		clock:         clock,
		uuider:        uuider,
		newController: newController,
		idleRetention: DefaultIdleRetention,
		controllers:   map[string]sessionController{},
		sessionStore:  sessionStore,
		orderStore:    orderStore,
		publisher:     publisher,
		subscriber:    subscriber,
		balances:      balances,
	}
}

func (s *service) startSession(c context.Context) (string, error) {
	sessionUID := s.uuider.Create()

	err := s.sessionStore.Put(c, sessionUID, CheckoutSession{
		UID:       sessionUID,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error storing checkout session %s: %s", sessionUID, err))
	}

	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Started checkout session %s", sessionUID)

	return sessionUID, nil
}

func (s *service) getSession(c context.Context, sessionUID string) (CheckoutSession, []OrderRecord, error) {
	session, found, err := s.sessionStore.Get(c, sessionUID)
	if err != nil {
		return CheckoutSession{}, nil, myerrors.NewInternalError(fmt.Errorf("error fetching checkout session %s: %s", sessionUID, err))
	}
	if !found {
		return CheckoutSession{}, nil, myerrors.NewNotFoundError(fmt.Errorf("checkout session %s not found", sessionUID))
	}

	orders, err := s.orderStore.Query(c, []mystore.Filter{
		{Field: "SessionUID", Compare: "=", Value: sessionUID},
	}, "CreatedAt")
	if err != nil {
		return CheckoutSession{}, nil, myerrors.NewInternalError(fmt.Errorf("error fetching orders of session %s: %s", sessionUID, err))
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	return session, orders, nil
}

func (s *service) createOrder(c context.Context, sessionUID string, req orderlifecycle.CreateOrderRequest) (OrderView, error) {
	ctl, err := s.controllerFor(c, sessionUID)
	if err != nil {
		return OrderView{}, err
	}

	order, err := ctl.CreateOrder(c, req)
	if order.UID != "" {
		sessionErr := s.addOrderToSession(c, sessionUID, order.UID)
		if sessionErr != nil {
			return OrderView{}, sessionErr
		}
	}
	if err != nil {
		return OrderView{}, err
	}

	return newOrderView(sessionUID, order, s.clock.Now()), nil
}

// getOrder shows the active order, or the last recorded order once the session's controller has been released.
func (s *service) getOrder(c context.Context, sessionUID string) (OrderView, error) {
	_, order, err := s.activeOrder(sessionUID)
	if err == nil {
		return newOrderView(sessionUID, order, s.clock.Now()), nil
	}

	record, found, recordErr := s.lastRecordedOrder(c, sessionUID)
	if recordErr != nil {
		return OrderView{}, recordErr
	}
	if !found {
		return OrderView{}, err
	}
	return newOrderViewFromRecord(record), nil
}

func (s *service) signOrder(c context.Context, sessionUID string) (SignView, error) {
	ctl, order, err := s.activeOrder(sessionUID)
	if err != nil {
		return SignView{}, err
	}

	result, err := ctl.SignAndSubmit(c, order.UID)
	if err != nil {
		return SignView{}, err
	}

	latest, err := ctl.Get(order.UID)
	if err != nil {
		return SignView{}, err
	}

	return SignView{
		OrderUID:  result.OrderUID,
		Signature: result.Signature,
		Order:     newOrderView(sessionUID, latest, s.clock.Now()),
	}, nil
}

func (s *service) pollOrder(c context.Context, sessionUID string) (OrderView, error) {
	ctl, order, err := s.activeOrder(sessionUID)
	if err != nil {
		return OrderView{}, err
	}

	latest, err := ctl.PollOnce(c, order.UID)
	if err != nil {
		return OrderView{}, err
	}
	return newOrderView(sessionUID, latest, s.clock.Now()), nil
}

func (s *service) updatePayerAddress(c context.Context, sessionUID string, payerAddress string) (OrderView, error) {
	ctl, order, err := s.activeOrder(sessionUID)
	if err != nil {
		return OrderView{}, err
	}

	latest, err := ctl.UpdatePayerAddress(c, order.UID, payerAddress)
	if err != nil {
		return OrderView{}, err
	}
	return newOrderView(sessionUID, latest, s.clock.Now()), nil
}

func (s *service) cancelOrder(c context.Context, sessionUID string) (OrderView, error) {
	ctl, order, err := s.activeOrder(sessionUID)
	if err != nil {
		return OrderView{}, err
	}

	err = ctl.Cancel(c, order.UID)
	if err != nil {
		return OrderView{}, err
	}

	latest, err := ctl.Get(order.UID)
	if err != nil {
		return OrderView{}, err
	}
	return newOrderView(sessionUID, latest, s.clock.Now()), nil
}

// walletBalance reports the balance of address, or of the payer of the active order when address is empty.
func (s *service) walletBalance(c context.Context, sessionUID string, address string) (BalanceView, error) {
	_, order, err := s.activeOrder(sessionUID)
	if err != nil {
		return BalanceView{}, err
	}

	if address == "" && order.Preparation != nil {
		address = order.Preparation.PayerAddress
	}
	if address == "" {
		return BalanceView{}, &orderlifecycle.ValidationError{Field: "address", Message: "is required"}
	}

	balance, err := s.balances.Balance(c, address)
	if err != nil {
		return BalanceView{}, err
	}

	view := BalanceView{WalletBalance: balance}
	if order.Quote != nil {
		currency := orderlifecycle.Currency(strings.ToLower(order.Quote.Currency))
		view.Required = order.Quote.Amount.String()
		view.Currency = string(currency)
		view.Sufficient = balance.HasSufficient(currency, order.Quote.Amount)
	}
	return view, nil
}

func (s *service) getOrderRecord(c context.Context, orderUID string) (OrderRecord, error) {
	record, found, err := s.orderStore.Get(c, orderUID)
	if err != nil {
		return OrderRecord{}, myerrors.NewInternalError(fmt.Errorf("error fetching order %s: %s", orderUID, err))
	}
	if !found {
		return OrderRecord{}, myerrors.NewNotFoundError(fmt.Errorf("order %s not found", orderUID))
	}
	return record, nil
}

// controllerFor returns the controller of the session and creates it on first use.
func (s *service) controllerFor(c context.Context, sessionUID string) (*orderlifecycle.Controller, error) {
	s.Lock()
	sc, found := s.controllers[sessionUID]
	s.Unlock()
	if found {
		return sc.controller, nil
	}

	_, found, err := s.sessionStore.Get(c, sessionUID)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error fetching checkout session %s: %s", sessionUID, err))
	}
	if !found {
		return nil, myerrors.NewNotFoundError(fmt.Errorf("checkout session %s not found", sessionUID))
	}

	s.Lock()
	sc, found = s.controllers[sessionUID]
	if !found {
		sc = sessionController{
			controller: s.newController(),
			createdAt:  s.clock.Now(),
		}
		sc.controller.Subscribe(s.onStateChange(sessionUID))
		s.controllers[sessionUID] = sc
	}
	released := s.releaseIdleControllers(sessionUID)
	s.Unlock()

	for releasedUID, ctl := range released {
		ctl.Close()
		s.logger.Log(c, releasedUID, mylog.SeverityInfo, "Released idle controller of checkout session %s", releasedUID)
	}

	return sc.controller, nil
}

// releaseIdleControllers forgets the controllers whose order has no running timers and has not changed for
// idleRetention. The caller holds the lock and closes the returned controllers.
func (s *service) releaseIdleControllers(keepSessionUID string) map[string]*orderlifecycle.Controller {
	now := s.clock.Now()
	released := map[string]*orderlifecycle.Controller{}
	for sessionUID, sc := range s.controllers {
		if sessionUID == keepSessionUID {
			continue
		}

		idleSince := sc.createdAt
		order, found := sc.controller.Current()
		if found {
			if order.WatchdogArmed || order.PollingArmed || order.State == orderlifecycle.StateSigning {
				continue
			}
			idleSince = order.LastModified
		}
		if now.Sub(idleSince) < s.idleRetention {
			continue
		}

		delete(s.controllers, sessionUID)
		released[sessionUID] = sc.controller
	}
	return released
}

func (s *service) activeOrder(sessionUID string) (*orderlifecycle.Controller, orderlifecycle.Order, error) {
	s.Lock()
	sc, found := s.controllers[sessionUID]
	s.Unlock()
	if !found {
		return nil, orderlifecycle.Order{}, myerrors.NewNotFoundError(fmt.Errorf("no order in checkout session %s", sessionUID))
	}

	order, found := sc.controller.Current()
	if !found {
		return nil, orderlifecycle.Order{}, myerrors.NewNotFoundError(fmt.Errorf("no order in checkout session %s", sessionUID))
	}
	return sc.controller, order, nil
}

func (s *service) lastRecordedOrder(c context.Context, sessionUID string) (OrderRecord, bool, error) {
	session, found, err := s.sessionStore.Get(c, sessionUID)
	if err != nil {
		return OrderRecord{}, false, myerrors.NewInternalError(fmt.Errorf("error fetching checkout session %s: %s", sessionUID, err))
	}
	if !found || session.LastOrderUID == "" {
		return OrderRecord{}, false, nil
	}

	record, found, err := s.orderStore.Get(c, session.LastOrderUID)
	if err != nil {
		return OrderRecord{}, false, myerrors.NewInternalError(fmt.Errorf("error fetching order %s: %s", session.LastOrderUID, err))
	}
	return record, found, nil
}

func (s *service) addOrderToSession(c context.Context, sessionUID string, orderUID string) error {
	now := s.clock.Now()

	return s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		session, found, err := s.sessionStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout session %s not found", sessionUID))
		}

		for _, uid := range session.OrderUIDs {
			if uid == orderUID {
				return nil
			}
		}
		session.OrderUIDs = append(session.OrderUIDs, orderUID)
		session.LastOrderUID = orderUID
		session.LastModified = &now

		err = s.sessionStore.Put(c, sessionUID, session)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
}

func (s *service) onStateChange(sessionUID string) orderlifecycle.Listener {
	return func(c context.Context, change orderlifecycle.StateChange) {
		err := s.recordStateChange(c, sessionUID, change)
		if err != nil {
			s.logger.Log(c, change.Order.UID, mylog.SeverityError, "Error recording %s -> %s of order %s: %s", change.From, change.To, change.Order.UID, err)
		}
	}
}

// recordStateChange persists the order and publishes the change in one transaction. Changes older than the stored
// version are dropped, so that consumers never see an order move backwards.
func (s *service) recordStateChange(c context.Context, sessionUID string, change orderlifecycle.StateChange) error {
	record := newOrderRecord(sessionUID, change.Order)

	return s.orderStore.RunInTransaction(c, func(c context.Context) error {
		existing, found, err := s.orderStore.Get(c, record.OrderUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if found && existing.Version >= record.Version {
			s.logger.Log(c, record.OrderUID, mylog.SeverityDebug, "Dropped version %d of order %s: have %d", record.Version, record.OrderUID, existing.Version)
			return nil
		}

		err = s.orderStore.Put(c, record.OrderUID, record)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderevents.TopicName, orderevents.OrderStateChanged{
			SessionUID:    sessionUID,
			OrderUID:      record.OrderUID,
			FromState:     change.From.String(),
			ToState:       change.To.String(),
			Version:       record.Version,
			Amount:        record.Amount,
			Currency:      record.Currency,
			Signature:     record.Signature,
			FailureReason: record.FailureReason,
			ChangedAt:     record.LastModified,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}
		return nil
	})
}

// close stops the timers of every session and waits for them.
func (s *service) close() {
	s.Lock()
	controllers := make([]*orderlifecycle.Controller, 0, len(s.controllers))
	for _, sc := range s.controllers {
		controllers = append(controllers, sc.controller)
	}
	s.controllers = map[string]sessionController{}
	s.Unlock()

	for _, ctl := range controllers {
		ctl.Close()
	}
}
