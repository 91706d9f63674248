package memory

import (
	"context"
	"slices"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/pkg/errs"
)

type participantRepository struct {
	uow *UnitOfWork
}

func (r *participantRepository) Add(_ context.Context, aggregate *participant.Participant) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneParticipant(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			if _, ok := s.participants[key]; ok {
				return errs.NewValueIsInvalidError("participant id already exists")
			}
			return nil
		},
		apply: func(s *Store) { s.participants[key] = c },
	})
}

func (r *participantRepository) Update(_ context.Context, aggregate *participant.Participant) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneParticipant(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			if _, ok := s.participants[key]; !ok {
				return errs.NewObjectNotFoundError("participant", key)
			}
			return nil
		},
		apply: func(s *Store) { s.participants[key] = c },
	})
}

func (r *participantRepository) Get(_ context.Context, id kernel.UUID) (*participant.Participant, error) {
	s := r.uow.store
	s.mu.RLock()
	p, ok := s.participants[id.String()]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("participant", id.String())
	}
	return cloneParticipant(p)
}

type orderRepository struct {
	uow *UnitOfWork
}

func (r *orderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			if _, ok := s.orders[key]; ok {
				return errs.NewValueIsInvalidError("order id already exists")
			}
			return nil
		},
		apply: func(s *Store) { s.orders[key] = c },
	})
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	s := r.uow.store
	s.mu.RLock()
	o, ok := s.orders[id.String()]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(o)
}

func (r *orderRepository) UpdateIfStatus(_ context.Context, aggregate *order.Order, from []order.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			stored, ok := s.orders[key]
			if !ok {
				return errs.NewObjectNotFoundError("order", key)
			}
			if !slices.Contains(from, stored.Status()) {
				return errs.NewStateConflictError(order.AggregateName, "update", stored.Status().String(),
					"status changed concurrently")
			}
			return nil
		},
		apply: func(s *Store) { s.orders[key] = c },
	})
}

type tripRepository struct {
	uow *UnitOfWork
}

func (r *tripRepository) Add(_ context.Context, aggregate *trip.Trip) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneTrip(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			if _, ok := s.trips[key]; ok {
				return errs.NewValueIsInvalidError("trip id already exists")
			}
			return nil
		},
		apply: func(s *Store) { s.trips[key] = c },
	})
}

func (r *tripRepository) Get(_ context.Context, id kernel.UUID) (*trip.Trip, error) {
	s := r.uow.store
	s.mu.RLock()
	t, ok := s.trips[id.String()]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("trip", id.String())
	}
	return cloneTrip(t)
}

func (r *tripRepository) UpdateIfStatus(_ context.Context, aggregate *trip.Trip, from []trip.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneTrip(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			stored, ok := s.trips[key]
			if !ok {
				return errs.NewObjectNotFoundError("trip", key)
			}
			if !slices.Contains(from, stored.Status()) {
				return errs.NewStateConflictError(trip.AggregateName, "update", stored.Status().String(),
					"status changed concurrently")
			}
			return nil
		},
		apply: func(s *Store) { s.trips[key] = c },
	})
}

type vehicleRepository struct {
	uow *UnitOfWork
}

func (r *vehicleRepository) Add(_ context.Context, aggregate *vehicle.Vehicle) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneVehicle(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			if _, ok := s.vehicles[key]; ok {
				return errs.NewValueIsInvalidError("vehicle id already exists")
			}
			return nil
		},
		apply: func(s *Store) { s.vehicles[key] = c },
	})
}

func (r *vehicleRepository) Update(_ context.Context, aggregate *vehicle.Vehicle) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	c, err := cloneVehicle(aggregate)
	if err != nil {
		return err
	}
	key := c.ID().String()
	return r.uow.write(op{
		check: func(s *Store) error {
			if _, ok := s.vehicles[key]; !ok {
				return errs.NewObjectNotFoundError("vehicle", key)
			}
			return nil
		},
		apply: func(s *Store) { s.vehicles[key] = c },
	})
}

func (r *vehicleRepository) Get(_ context.Context, id kernel.UUID) (*vehicle.Vehicle, error) {
	s := r.uow.store
	s.mu.RLock()
	v, ok := s.vehicles[id.String()]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("vehicle", id.String())
	}
	return cloneVehicle(v)
}

func (r *vehicleRepository) FindApprovedByDriver(_ context.Context, driverID kernel.UUID) (*vehicle.Vehicle, error) {
	s := r.uow.store
	s.mu.RLock()
	var found *vehicle.Vehicle
	for _, v := range s.vehicles {
		if !v.CanServe(driverID) {
			continue
		}
		// lowest id wins so repeated lookups agree
		if found == nil || v.ID().Compare(found.ID()) < 0 {
			found = v
		}
	}
	s.mu.RUnlock()
	if found == nil {
		return nil, errs.NewObjectNotFoundError("approved vehicle of driver", driverID.String())
	}
	return cloneVehicle(found)
}

type messageRepository struct {
	uow *UnitOfWork
}

// Messages are immutable, so the store keeps the caller's pointer.
func (r *messageRepository) Add(_ context.Context, msg *message.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	room := msg.RoomKey().String()
	return r.uow.write(op{
		check: noCheck,
		apply: func(s *Store) { s.messages[room] = append(s.messages[room], msg) },
	})
}

func (r *messageRepository) ListByRoom(_ context.Context, room message.RoomKey, limit int) ([]*message.Message, error) {
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}
	s := r.uow.store
	s.mu.RLock()
	msgs := s.sortedMessages(room.String())
	s.mu.RUnlock()
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// ListDirectRooms reports the direct rooms the participant belongs to, each with
// its last message, newest first. It backs the conversation list when the
// service runs without a database.
func (s *Store) ListDirectRooms(participantID kernel.UUID) []*message.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last []*message.Message
	for room := range s.messages {
		key, err := message.ParseRoomKey(room)
		if err != nil || key.Kind() != message.DirectRoom || !key.HasParticipant(participantID) {
			continue
		}
		msgs := s.sortedMessages(room)
		if len(msgs) > 0 {
			last = append(last, msgs[len(msgs)-1])
		}
	}
	slices.SortFunc(last, func(a, b *message.Message) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return b.ID().Compare(a.ID())
	})
	return last
}

type outboxRepository struct {
	uow *UnitOfWork
}

func (r *outboxRepository) Add(_ context.Context, event *outbox.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	c, err := cloneEvent(event)
	if err != nil {
		return err
	}
	return r.uow.write(op{
		check: noCheck,
		apply: func(s *Store) { s.events = append(s.events, c) },
	})
}

func (r *outboxRepository) ListUnpublished(_ context.Context, limit int) ([]*outbox.Event, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}
	s := r.uow.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*outbox.Event
	for _, e := range s.events {
		if e.IsPublished() {
			continue
		}
		c, err := cloneEvent(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(_ context.Context, ids []kernel.UUID, at time.Time) error {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id.String()] = struct{}{}
	}
	return r.uow.write(op{
		check: noCheck,
		apply: func(s *Store) {
			for _, e := range s.events {
				if _, ok := wanted[e.ID().String()]; ok {
					e.MarkPublished(at)
				}
			}
		},
	})
}
