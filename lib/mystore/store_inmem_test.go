package mystore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type orderRecord struct {
	UID   string
	State string
}

var (
	record = orderRecord{UID: "123", State: "quoted"}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	store, cleanup, err := NewInMemoryStore[orderRecord](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := store.Get(c, record.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put", func(t *testing.T) {
		err = store.Put(c, record.UID, record)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		r, found, err := store.Get(c, record.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, orderRecord{UID: "123", State: "quoted"}, r)
	})

	t.Run("List", func(t *testing.T) {
		all, err := store.List(c)
		assert.NoError(t, err)
		assert.Equal(t, []orderRecord{record}, all)
	})

	t.Run("Query on equality", func(t *testing.T) {
		err = store.Put(c, "456", orderRecord{UID: "456", State: "completed"})
		assert.NoError(t, err)

		found, err := store.Query(c, []Filter{{Field: "State", Compare: "=", Value: "completed"}}, "UID")
		assert.NoError(t, err)
		assert.Equal(t, []orderRecord{{UID: "456", State: "completed"}}, found)
	})

	t.Run("Transaction rolls back nothing but propagates error", func(t *testing.T) {
		err := store.RunInTransaction(c, func(c context.Context) error {
			_, found, err := store.Get(c, record.UID)
			assert.NoError(t, err)
			assert.True(t, found)
			return fmt.Errorf("abort")
		})
		assert.EqualError(t, err, "abort")
	})
}

func TestNestedStores(t *testing.T) {
	c := context.TODO()
	orders, _, _ := NewInMemoryStore[orderRecord](c)
	outbox, _, _ := NewInMemoryStore[string](c)

	err := orders.RunInTransaction(c, func(c context.Context) error {
		err := orders.Put(c, "1", orderRecord{UID: "1", State: "created"})
		if err != nil {
			return err
		}
		// the outbox is a different store and must take its own lock
		return outbox.Put(c, "evt", "payload")
	})
	assert.NoError(t, err)
	assert.Len(t, outbox.Items, 1)
	assert.Len(t, orders.Items, 1)
}
