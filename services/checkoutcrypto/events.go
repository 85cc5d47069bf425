package checkoutcrypto

import (
	"context"
	"fmt"

	"github.com/MarcGrol/cryptocheckout/lib/myerrors"
	"github.com/MarcGrol/cryptocheckout/lib/myhttp"
	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/services/orderevents"
	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

// Subscribe has pubsub push the order events back to this service, so that sessions learn how their orders ended.
func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, orderevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", orderevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, orderevents.TopicName, myhttp.GuessHostnameWithScheme()+"/crypto/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", orderevents.TopicName, err)
	}

	return nil
}

// OnOrderStateChanged records how the latest order of a checkout session ended.
func (s *service) OnOrderStateChanged(c context.Context, topic string, event orderevents.OrderStateChanged) error {
	if !event.IsFinal() {
		return nil
	}

	s.logger.Log(c, event.SessionUID, mylog.SeverityInfo, "Event: order %s of session %s ended in %s", event.OrderUID, event.SessionUID, event.ToState)

	now := s.clock.Now()

	return s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		session, found, err := s.sessionStore.Get(c, event.SessionUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout session %s not found", event.SessionUID))
		}

		if session.Completed || session.LastOrderUID != event.OrderUID {
			return nil
		}

		session.LastOutcome = event.ToState
		if event.ToState == orderlifecycle.StateCompleted.String() {
			session.Completed = true
			session.CompletedWith = event.OrderUID
		}
		session.LastModified = &now

		err = s.sessionStore.Put(c, event.SessionUID, session)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
}
