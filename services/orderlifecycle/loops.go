package orderlifecycle

import (
	"context"
	"errors"

	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
)

// armWatchdog starts the expiry watchdog once a quote is known. Caller holds the lock.
func (ctl *Controller) armWatchdog(entry *orderEntry) {
	if entry.order.WatchdogArmed || entry.order.Quote == nil || !ctl.mayRunLoops(entry) {
		return
	}

	// created here, not in the goroutine, so that virtual time advanced right after arming is observed
	ticker := ctl.clock.NewTicker(ctl.config.WatchdogInterval)
	entry.order.WatchdogArmed = true

	ctl.loops.Add(1)
	go ctl.watch(entry, ticker)
}

// armPolling starts the status poll loop. Caller holds the lock.
func (ctl *Controller) armPolling(entry *orderEntry) {
	if entry.order.PollingArmed || !ctl.mayRunLoops(entry) {
		return
	}
	if ctl.config.MaxPollAttempts > 0 && entry.order.PollAttemptCount >= ctl.config.MaxPollAttempts {
		return
	}

	ticker := ctl.clock.NewTicker(ctl.config.PollInterval)
	entry.order.PollingArmed = true

	ctl.loops.Add(1)
	go ctl.poll(entry, ticker)
}

func (ctl *Controller) mayRunLoops(entry *orderEntry) bool {
	return !entry.cancelled && entry.ctx.Err() == nil && !entry.order.State.IsTerminal()
}

// stopLoops makes both loops return on their next select. Caller holds the lock.
func (ctl *Controller) stopLoops(entry *orderEntry) {
	entry.stop()
	entry.order.WatchdogArmed = false
	entry.order.PollingArmed = false
}

func (ctl *Controller) watch(entry *orderEntry, ticker mytime.Ticker) {
	defer ctl.loops.Done()
	defer ticker.Stop()

	for {
		select {
		case <-entry.ctx.Done():
			return
		case <-ticker.Chan():
			if !ctl.checkExpiry(entry) {
				return
			}
		}
	}
}

// checkExpiry expires the order when its quote ran out. It returns false when the watchdog is done.
func (ctl *Controller) checkExpiry(entry *orderEntry) bool {
	ctl.mutex.Lock()
	if entry.ctx.Err() != nil {
		ctl.mutex.Unlock()
		return false
	}

	order := &entry.order
	// signing has no edge to expired: the first tick after signing resolves takes care of it
	if order.State == StateSigning || order.Quote == nil || !mytime.IsExpired(order.Quote.ExpiresAt, ctl.clock.Now()) {
		ctl.mutex.Unlock()
		return true
	}

	orderUID := order.UID
	expErr := &ExpirationError{OrderUID: orderUID, ExpiresAt: order.Quote.ExpiresAt}
	order.FailureReason = expErr.Error()
	change, err := ctl.transition(entry, StateExpired)
	ctl.mutex.Unlock()

	c := context.Background()
	if err != nil {
		ctl.logger.Log(c, orderUID, mylog.SeverityError, "Watchdog could not expire order %s: %s", orderUID, err)
		return true
	}

	ctl.logger.Log(c, orderUID, mylog.SeverityWarn, "%s", expErr)
	ctl.notify(c, change)

	return false
}

func (ctl *Controller) poll(entry *orderEntry, ticker mytime.Ticker) {
	defer ctl.loops.Done()
	defer ticker.Stop()

	for {
		select {
		case <-entry.ctx.Done():
			return
		case <-ticker.Chan():
			if !ctl.pollTick(entry) {
				return
			}
		}
	}
}

// pollTick performs one scheduled fetch. It returns false when the poll loop is done.
func (ctl *Controller) pollTick(entry *orderEntry) bool {
	_, err := ctl.fetchStatus(entry.ctx, entry, true)
	if err != nil {
		var pollErr *PollError
		switch {
		case errors.Is(err, ErrPollInFlight):
			// a caller-initiated fetch is outstanding; try again next tick
		case errors.As(err, &pollErr):
			// recorded on the order; try again next tick
		default:
			return false
		}
	}

	ctl.mutex.Lock()
	defer ctl.mutex.Unlock()

	if entry.ctx.Err() != nil {
		return false
	}
	if ctl.config.MaxPollAttempts > 0 && entry.order.PollAttemptCount >= ctl.config.MaxPollAttempts {
		entry.order.PollingArmed = false
		ctl.touch(entry)
		ctl.logger.Log(context.Background(), entry.order.UID, mylog.SeverityWarn, "Stopped polling order %s after %d attempts", entry.order.UID, entry.order.PollAttemptCount)
		return false
	}
	return true
}

// fetchStatus reads the provider status and applies it. At most one fetch per order is outstanding.
// Results of a scheduled fetch that arrive after the loops were stopped are dropped.
func (ctl *Controller) fetchStatus(c context.Context, entry *orderEntry, scheduled bool) (Order, error) {
	ctl.mutex.Lock()
	if scheduled && entry.ctx.Err() != nil {
		ctl.mutex.Unlock()
		return Order{}, ErrOrderNotFound
	}
	if entry.fetching {
		order := entry.order.clone()
		ctl.mutex.Unlock()
		return order, ErrPollInFlight
	}
	entry.fetching = true
	orderUID := entry.order.UID
	clientSecret := entry.order.ClientSecret
	ctl.mutex.Unlock()

	snapshot, err := ctl.provider.GetOrderStatus(c, orderUID, clientSecret)

	ctl.mutex.Lock()
	entry.fetching = false

	if ctl.active != entry || (scheduled && entry.ctx.Err() != nil) {
		ctl.mutex.Unlock()
		return Order{}, ErrOrderNotFound
	}

	order := &entry.order
	order.PollAttemptCount++
	order.LastPolledAt = ctl.clock.Now()

	if err != nil {
		order.ConsecutivePollFailures++
		order.LastPollError = err.Error()
		ctl.touch(entry)
		pollErr := &PollError{Attempt: order.PollAttemptCount, Err: err}
		result := order.clone()
		ctl.mutex.Unlock()

		ctl.logger.Log(c, orderUID, mylog.SeverityWarn, "Order %s: %s (%d consecutive)", orderUID, pollErr, result.ConsecutivePollFailures)
		return result, pollErr
	}

	order.ConsecutivePollFailures = 0
	order.LastPollError = ""
	changes := ctl.applySnapshot(c, entry, snapshot)
	ctl.touch(entry)
	result := order.clone()
	ctl.mutex.Unlock()

	ctl.notify(c, changes...)

	return result, nil
}

// applySnapshot merges provider data into the order and maps the payment status onto the state machine.
// Caller holds the lock.
func (ctl *Controller) applySnapshot(c context.Context, entry *orderEntry, snapshot OrderSnapshot) []StateChange {
	order := &entry.order

	if snapshot.Quote != nil {
		switch {
		case order.Quote == nil:
			q := *snapshot.Quote
			order.Quote = &q
			ctl.armWatchdog(entry)
		case !snapshot.Quote.ExpiresAt.Equal(order.Quote.ExpiresAt):
			ctl.logger.Log(c, order.UID, mylog.SeverityWarn, "Ignored expiry change of order %s from %s to %s", order.UID, order.Quote.ExpiresAt, snapshot.Quote.ExpiresAt)
		}
	}
	if snapshot.Preparation != nil {
		order.Preparation = copyPreparation(snapshot.Preparation)
	}

	var targets []State
	switch snapshot.PaymentStatus {
	case PaymentStatusCompleted:
		// while signing, the signing result is applied first
		if order.State != StateSigning {
			targets = []State{StateCompleted}
		}
	case PaymentStatusFailed:
		if !order.State.IsTerminal() {
			order.FailureReason = failureReason(snapshot)
		}
		targets = []State{StateFailed}
	default:
		if order.State == StateQuoted && order.Preparation != nil {
			targets = []State{StateAwaitingPayment}
		}
	}

	changes := []StateChange{}
	for _, to := range targets {
		if order.State == to {
			break
		}
		change, err := ctl.transition(entry, to)
		if err != nil {
			ctl.logger.Log(c, order.UID, mylog.SeverityWarn, "Ignored provider status %q of order %s: %s", snapshot.PaymentStatus, order.UID, err)
			break
		}
		changes = append(changes, change)
	}

	if order.State == StateAwaitingPayment || order.State == StateProcessing {
		ctl.armPolling(entry)
	}

	return changes
}
