package message

import (
	"errors"
	"fmt"
	"strings"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
	"superservice/internal/pkg/guard"
)

// RoomKind tells which kind of conversation a room carries.
type RoomKind string

const (
	OrderRoom  RoomKind = "order"
	TripRoom   RoomKind = "trip"
	DirectRoom RoomKind = "chat"
)

func ParseRoomKind(s string) (RoomKind, error) {
	switch k := RoomKind(s); k {
	case OrderRoom, TripRoom, DirectRoom:
		return k, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("room kind", fmt.Errorf("%q is not a room kind", s))
	}
}

var ErrRoomKeyIsNotConstructed = errs.NewValueIsRequiredError("room key must be created via a RoomKey constructor")

// RoomKey identifies a room. It is derived from the entity for order and
// trip rooms and from the sorted participant pair for direct chats, so the
// same conversation always maps to the same key.
//
// Textual forms, as stored with each message:
//
//	order:<order id>
//	trip:<trip id>
//	chat:<lower participant id>_<higher participant id>
//
// RoomKey is comparable and may be used as a map key.
type RoomKey struct {
	kind RoomKind
	// entity is the order or trip id, or the lower participant id of a
	// direct chat.
	entity kernel.UUID
	// peer is the higher participant id of a direct chat.
	peer  kernel.UUID
	guard guard.ConstructorGuard
}

func NewOrderRoomKey(orderID kernel.UUID) (RoomKey, error) {
	if err := orderID.Validate(); err != nil {
		return RoomKey{}, err
	}
	return RoomKey{kind: OrderRoom, entity: orderID, guard: guard.NewConstructorGuard()}, nil
}

func NewTripRoomKey(tripID kernel.UUID) (RoomKey, error) {
	if err := tripID.Validate(); err != nil {
		return RoomKey{}, err
	}
	return RoomKey{kind: TripRoom, entity: tripID, guard: guard.NewConstructorGuard()}, nil
}

// NewDirectRoomKey builds the key of the chat between a and b. The result
// does not depend on argument order.
func NewDirectRoomKey(a, b kernel.UUID) (RoomKey, error) {
	if err := errors.Join(a.Validate(), b.Validate()); err != nil {
		return RoomKey{}, err
	}
	if a.IsEqual(b) {
		return RoomKey{}, errs.NewValueIsInvalidErrorWithCause("direct room", errors.New("participants must differ"))
	}
	if a.Compare(b) > 0 {
		a, b = b, a
	}
	return RoomKey{kind: DirectRoom, entity: a, peer: b, guard: guard.NewConstructorGuard()}, nil
}

// ParseRoomKey reads the textual form produced by String.
func ParseRoomKey(s string) (RoomKey, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return RoomKey{}, errs.NewValueIsInvalidErrorWithCause("room key", fmt.Errorf("%q has no kind prefix", s))
	}
	k, err := ParseRoomKind(kind)
	if err != nil {
		return RoomKey{}, err
	}

	switch k {
	case OrderRoom, TripRoom:
		id, err := kernel.UUIDFromString(rest)
		if err != nil {
			return RoomKey{}, errs.NewValueIsInvalidErrorWithCause("room key", err)
		}
		if k == OrderRoom {
			return NewOrderRoomKey(id)
		}
		return NewTripRoomKey(id)
	default:
		a, b, err := ParseParticipantPair(rest)
		if err != nil {
			return RoomKey{}, err
		}
		return NewDirectRoomKey(a, b)
	}
}

// ParseParticipantPair reads "<uuid>_<uuid>", the room id of a direct chat.
func ParseParticipantPair(s string) (kernel.UUID, kernel.UUID, error) {
	left, right, ok := strings.Cut(s, "_")
	if !ok {
		return kernel.UUID{}, kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("room id", fmt.Errorf("%q is not a participant pair", s))
	}
	a, errA := kernel.UUIDFromString(left)
	b, errB := kernel.UUIDFromString(right)
	if err := errors.Join(errA, errB); err != nil {
		return kernel.UUID{}, kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("room id", err)
	}
	return a, b, nil
}

func (k RoomKey) Validate() error {
	return k.guard.Validate(ErrRoomKeyIsNotConstructed)
}

func (k RoomKey) Kind() RoomKind {
	return k.kind
}

// EntityID returns the order or trip id. It is the zero UUID for direct
// rooms.
func (k RoomKey) EntityID() kernel.UUID {
	if k.kind == DirectRoom {
		return kernel.UUID{}
	}
	return k.entity
}

// Participants returns the sorted pair of a direct room.
func (k RoomKey) Participants() (kernel.UUID, kernel.UUID, bool) {
	if k.kind != DirectRoom {
		return kernel.UUID{}, kernel.UUID{}, false
	}
	return k.entity, k.peer, true
}

// HasParticipant reports whether id is one of the pair of a direct room.
func (k RoomKey) HasParticipant(id kernel.UUID) bool {
	return k.kind == DirectRoom && (k.entity.IsEqual(id) || k.peer.IsEqual(id))
}

// Peer returns the other participant of a direct room.
func (k RoomKey) Peer(of kernel.UUID) (kernel.UUID, bool) {
	switch {
	case !k.HasParticipant(of):
		return kernel.UUID{}, false
	case k.entity.IsEqual(of):
		return k.peer, true
	default:
		return k.entity, true
	}
}

func (k RoomKey) String() string {
	if k.kind == DirectRoom {
		return fmt.Sprintf("%s:%s_%s", k.kind, k.entity, k.peer)
	}
	return fmt.Sprintf("%s:%s", k.kind, k.entity)
}

func (k RoomKey) IsEqual(other RoomKey) bool {
	return k == other
}
