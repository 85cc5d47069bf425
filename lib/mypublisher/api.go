package mypublisher

import (
	"context"

	"github.com/MarcGrol/cryptocheckout/lib/myevents"
)

//go:generate mockgen -source=api.go -package mypublisher -destination publisher_mock.go Publisher

// Publisher stores an event in an outbox so that it is published exactly when the surrounding transaction commits.
type Publisher interface {
	Publish(c context.Context, topic string, event myevents.Event) error
}
