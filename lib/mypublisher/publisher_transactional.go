package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/cryptocheckout/lib/mycontext"
	"github.com/MarcGrol/cryptocheckout/lib/myevents"
	"github.com/MarcGrol/cryptocheckout/lib/myhttp"
	"github.com/MarcGrol/cryptocheckout/lib/mylog"
	"github.com/MarcGrol/cryptocheckout/lib/mypubsub"
	"github.com/MarcGrol/cryptocheckout/lib/myqueue"
	"github.com/MarcGrol/cryptocheckout/lib/mystore"
	"github.com/MarcGrol/cryptocheckout/lib/mytime"
)

const triggerPathTemplate = "/pubsub/%s/%s"

type TransactionalPublisher struct {
	outbox    mystore.Store[myevents.EventEnvelope]
	queue     myqueue.TaskQueuer
	enveloper enveloper
	pubsub    mypubsub.PubSub
	logger    mylog.Logger
}

func New(c context.Context, pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) (*TransactionalPublisher, func(), error) {
	outbox, outboxCleanup, err := mystore.New[myevents.EventEnvelope](c)
	if err != nil {
		return nil, nil, err
	}

	return NewWithOutbox(outbox, pubsub, queue, nower), outboxCleanup, nil
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWithOutbox(outbox mystore.Store[myevents.EventEnvelope], pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) *TransactionalPublisher {
	return &TransactionalPublisher{
		outbox:    outbox,
		queue:     queue,
		enveloper: newEnveloper(nower),
		pubsub:    pubsub,
		logger:    mylog.New("publisher"),
	}
}

func (p *TransactionalPublisher) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/pubsub/{topic}/{uid}", p.processTriggerPage()).Methods("PUT")
}

// Publish stores the event in the outbox and enqueues a trigger that will push it to pubsub.
// When called within a store transaction, both only happen when that transaction commits.
func (p *TransactionalPublisher) Publish(c context.Context, topic string, event myevents.Event) error {
	envelope, err := p.enveloper.do(topic, event)
	if err != nil {
		return fmt.Errorf("error creating envelope: %s", err)
	}

	err = p.outbox.Put(c, envelope.UID, envelope)
	if err != nil {
		return fmt.Errorf("error storing envelope %s: %s", envelope.UID, err)
	}

	err = p.queue.Enqueue(c, myqueue.Task{
		UID:            envelope.UID,
		WebhookURLPath: fmt.Sprintf(triggerPathTemplate, envelope.Topic, envelope.UID),
		Payload:        []byte{},
	})
	if err != nil {
		return fmt.Errorf("error queueing publication-trigger %s: %s", envelope.UID, err)
	}

	p.logger.Log(c, envelope.AggregateUID, mylog.SeverityInfo, "Enqueued event %s", envelope.String())

	return nil
}

func (p *TransactionalPublisher) processTriggerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(p.logger)

		topicName := mux.Vars(r)["topic"]
		eventUID := mux.Vars(r)["uid"]

		published, err := p.processTrigger(c, topicName, eventUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Successfully published %d event(s)", published),
		})
	}
}

// processTrigger flushes every unpublished envelope of the topic, oldest first.
// A trigger for an envelope that was already flushed by an earlier trigger is a no-op.
func (p *TransactionalPublisher) processTrigger(c context.Context, topicName string, uid string) (int, error) {
	published := 0
	err := p.outbox.RunInTransaction(c, func(c context.Context) error {
		envelopes, err := p.outbox.Query(c, []mystore.Filter{
			{Field: "Topic", Compare: "=", Value: topicName},
			{Field: "Published", Compare: "=", Value: false},
		}, "CreatedAt")
		if err != nil {
			return fmt.Errorf("error fetching unpublished envelopes: %s", err)
		}

		for _, envelope := range envelopes {
			jsonBytes, err := json.Marshal(envelope)
			if err != nil {
				return fmt.Errorf("error serializing envelope %s: %s", envelope.UID, err)
			}

			err = p.pubsub.Publish(c, envelope.Topic, string(jsonBytes))
			if err != nil {
				return fmt.Errorf("error publishing envelope %s: %s", envelope.UID, err)
			}

			envelope.Published = true
			err = p.outbox.Put(c, envelope.UID, envelope)
			if err != nil {
				return fmt.Errorf("error marking envelope %s as published: %s", envelope.UID, err)
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	p.logger.Log(c, uid, mylog.SeverityInfo, "Trigger %s published %d event(s) on topic %s", uid, published, topicName)

	return published, nil
}
