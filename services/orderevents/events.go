package orderevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/MarcGrol/cryptocheckout/lib/myerrors"
	"github.com/MarcGrol/cryptocheckout/lib/myevents"
)

const (
	TopicName             = "cryptocheckout"
	orderStateChangedName = TopicName + ".stateChanged"
)

type OrderEventService interface {
	OnOrderStateChanged(c context.Context, topic string, event OrderStateChanged) error
}

func DispatchEvent(c context.Context, reader io.Reader, service OrderEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case orderStateChangedName:
		event := OrderStateChanged{}
		err := json.Unmarshal([]byte(envelope.EventPayload), &event)
		if err != nil {
			return myerrors.NewInvalidInputError(err)
		}
		return service.OnOrderStateChanged(c, envelope.Topic, event)
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unknown event type %s", envelope.EventTypeName))
	}
}

// OrderStateChanged is published for every transition of an order.
type OrderStateChanged struct {
	SessionUID    string
	OrderUID      string
	FromState     string
	ToState       string
	Version       int
	Amount        string
	Currency      string
	Signature     string
	FailureReason string
	ChangedAt     time.Time
}

func (e OrderStateChanged) GetEventTypeName() string {
	return orderStateChangedName
}

func (e OrderStateChanged) GetAggregateName() string {
	return e.OrderUID
}

// IsFinal tells whether the order reached a state it can never leave.
func (e OrderStateChanged) IsFinal() bool {
	return e.ToState == "completed" || e.ToState == "failed" || e.ToState == "expired"
}
