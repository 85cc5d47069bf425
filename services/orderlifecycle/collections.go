package orderlifecycle

import (
	"context"
	"net/http"
	"sync"

	"github.com/MarcGrol/cryptocheckout/lib/mylog"
)

// Collections hands out the provider collection that orders are minted in.
// The collection is created at most once, however many controllers share it.
type Collections struct {
	mutex        sync.Mutex
	provider     Provider
	logger       mylog.Logger
	collectionID string
}

func NewCollections(collectionID string, provider Provider, logger mylog.Logger) *Collections {
	return &Collections{
		provider:     provider,
		logger:       logger,
		collectionID: collectionID,
	}
}

// Get returns the known collection or creates it. The lock is held during creation so that
// concurrent first orders wait for the same collection.
func (cs *Collections) Get(c context.Context) (string, error) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if cs.collectionID != "" {
		return cs.collectionID, nil
	}

	collectionID, err := cs.provider.CreateCollection(c)
	if err != nil {
		return "", asProviderError("create collection", err)
	}
	if collectionID == "" {
		return "", &ProviderError{Operation: "create collection", HTTPStatus: http.StatusBadGateway, Message: "collection without id"}
	}

	cs.collectionID = collectionID
	cs.logger.Log(c, "", mylog.SeverityInfo, "Created collection %s", collectionID)

	return collectionID, nil
}
