// Package memory is an in-process implementation of the persistence port.
// It backs unit tests of the realtime core and the state machine, and the
// service when it runs without a database (--storage=memory).
//
// Writes made inside a unit of work are checked when they are issued and
// checked again, then applied together, on Commit. Conditional status
// updates therefore linearize the same way the SQL adapter does.
package memory

import (
	"sort"
	"sync"
	"time"

	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/core/ports"
)

// Store holds every aggregate. The zero value is not usable; call NewStore.
type Store struct {
	mu           sync.RWMutex
	participants map[string]*participant.Participant
	orders       map[string]*order.Order
	trips        map[string]*trip.Trip
	vehicles     map[string]*vehicle.Vehicle
	messages     map[string][]*message.Message
	events       []*outbox.Event
}

func NewStore() *Store {
	return &Store{
		participants: make(map[string]*participant.Participant),
		orders:       make(map[string]*order.Order),
		trips:        make(map[string]*trip.Trip),
		vehicles:     make(map[string]*vehicle.Vehicle),
		messages:     make(map[string][]*message.Message),
	}
}

// UnitOfWorkFactory hands out units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// op is a pending write. check runs against the committed state and must
// not mutate it; apply performs the write.
type op struct {
	check func(s *Store) error
	apply func(s *Store)
}

// exec runs o immediately under the store lock.
func (s *Store) exec(o op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.check(s); err != nil {
		return err
	}
	o.apply(s)
	return nil
}

func (s *Store) sortedMessages(room string) []*message.Message {
	msgs := append([]*message.Message(nil), s.messages[room]...)
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i], msgs[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().Before(b.CreatedAt())
		}
		return a.ID().Compare(b.ID()) < 0
	})
	return msgs
}

// MessageCount is a test helper reporting how many messages a room holds.
func (s *Store) MessageCount(room message.RoomKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[room.String()])
}

// OutboxLen is a test helper reporting the number of stored events.
func (s *Store) OutboxLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func noCheck(*Store) error { return nil }

func ptrTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
