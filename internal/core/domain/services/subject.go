package services

import (
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/trip"
)

// Subject is the snapshot of a room and its entity that an authorization
// decision is made against. It is built fresh from storage for every
// decision so assignment changes are seen immediately.
type Subject struct {
	room     message.RoomKey
	customer kernel.UUID
	assignee *kernel.UUID
	merchant *kernel.UUID
}

// OrderSubject snapshots the parties of o.
func OrderSubject(o *order.Order) (Subject, error) {
	if err := o.Validate(); err != nil {
		return Subject{}, err
	}
	key, err := message.NewOrderRoomKey(o.ID())
	if err != nil {
		return Subject{}, err
	}
	merchant := o.Merchant()
	return Subject{
		room:     key,
		customer: o.Customer(),
		assignee: copyID(o.Courier()),
		merchant: &merchant,
	}, nil
}

// TripSubject snapshots the parties of t.
func TripSubject(t *trip.Trip) (Subject, error) {
	if err := t.Validate(); err != nil {
		return Subject{}, err
	}
	key, err := message.NewTripRoomKey(t.ID())
	if err != nil {
		return Subject{}, err
	}
	return Subject{
		room:     key,
		customer: t.Customer(),
		assignee: copyID(t.Driver()),
	}, nil
}

// DirectSubject is the subject of a direct chat. Membership comes from the
// key itself.
func DirectSubject(key message.RoomKey) (Subject, error) {
	if err := key.Validate(); err != nil {
		return Subject{}, err
	}
	return Subject{room: key}, nil
}

func (s Subject) Room() message.RoomKey {
	return s.room
}

// IsMember reports logical membership: customer or assignee of an entity
// room, or one of the pair of a direct room. Administrators are handled by
// the Authorizer.
func (s Subject) IsMember(id kernel.UUID) bool {
	if s.room.Kind() == message.DirectRoom {
		return s.room.HasParticipant(id)
	}
	return s.IsCustomer(id) || s.IsAssignee(id)
}

func (s Subject) IsCustomer(id kernel.UUID) bool {
	return !s.customer.IsZero() && s.customer.IsEqual(id)
}

func (s Subject) IsAssignee(id kernel.UUID) bool {
	return s.assignee != nil && s.assignee.IsEqual(id)
}

func (s Subject) IsMerchant(id kernel.UUID) bool {
	return s.merchant != nil && s.merchant.IsEqual(id)
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
