package mystore

import (
	"context"
	"reflect"
	"sync"
)

// inMemoryTransactionKey marks a context as holding the lock of one specific store.
type inMemoryTransactionKey struct {
	store any
}

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	// Start transaction
	s.Lock()
	defer s.Unlock()

	// Within this block everything is transactional
	return f(context.WithValue(c, inMemoryTransactionKey{store: s}, true))
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	nonTransactional := c.Value(inMemoryTransactionKey{store: s}) == nil

	if nonTransactional {
		s.Lock()
		defer s.Unlock()
	}

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	nonTransactional := c.Value(inMemoryTransactionKey{store: s}) == nil

	if nonTransactional {
		s.Lock()
		defer s.Unlock()
	}

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	nonTransactional := c.Value(inMemoryTransactionKey{store: s}) == nil

	if nonTransactional {
		s.Lock()
		defer s.Unlock()
	}

	result := make([]T, 0, len(s.Items))
	for _, v := range s.Items {
		result = append(result, v)
	}

	return result, nil
}

// Query only supports equality filters; ordering is ignored.
func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(all))
	for _, item := range all {
		if matches(item, filters) {
			result = append(result, item)
		}
	}

	return result, nil
}

func matches(item any, filters []Filter) bool {
	value := reflect.Indirect(reflect.ValueOf(item))
	for _, f := range filters {
		if f.Compare != "=" {
			continue
		}
		field := value.FieldByName(f.Field)
		if !field.IsValid() || !reflect.DeepEqual(field.Interface(), f.Value) {
			return false
		}
	}
	return true
}
