package memory

import (
	"context"
	"errors"
	"sync"

	"superservice/internal/core/ports"
)

var ErrNoTransaction = errors.New("no active transaction")

// UnitOfWork buffers writes between Begin and Commit.
type UnitOfWork struct {
	store *Store

	mu      sync.Mutex
	active  bool
	pending []op
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active {
		return nil
	}
	u.active = true
	u.pending = nil
	return nil
}

// Commit re-checks every buffered write and applies all of them, or none.
func (u *UnitOfWork) Commit(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return ErrNoTransaction
	}
	pending := u.pending
	u.active = false
	u.pending = nil

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for _, o := range pending {
		if err := o.check(u.store); err != nil {
			return err
		}
	}
	for _, o := range pending {
		o.apply(u.store)
	}
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return ErrNoTransaction
	}
	u.active = false
	u.pending = nil
	return nil
}

// write checks o now and either applies it (no transaction) or buffers it.
func (u *UnitOfWork) write(o op) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return u.store.exec(o)
	}

	u.store.mu.RLock()
	err := o.check(u.store)
	u.store.mu.RUnlock()
	if err != nil {
		return err
	}
	u.pending = append(u.pending, o)
	return nil
}

func (u *UnitOfWork) ParticipantRepository() ports.ParticipantRepository {
	return &participantRepository{uow: u}
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: u}
}

func (u *UnitOfWork) TripRepository() ports.TripRepository {
	return &tripRepository{uow: u}
}

func (u *UnitOfWork) VehicleRepository() ports.VehicleRepository {
	return &vehicleRepository{uow: u}
}

func (u *UnitOfWork) MessageRepository() ports.MessageRepository {
	return &messageRepository{uow: u}
}

func (u *UnitOfWork) OutboxRepository() ports.OutboxRepository {
	return &outboxRepository{uow: u}
}
