package realtime

import (
	"context"
	"errors"
	"strings"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/services"
	"superservice/internal/core/ports"
	"superservice/internal/pkg/errs"
)

// RoomRef is a room as addressed by a client: /rt/<kind>/<id>. For direct
// chats id is either "<uuid>_<uuid>" or the peer's id alone.
type RoomRef struct {
	Kind message.RoomKind
	ID   string
}

func ParseRoomRef(kind, id string) (RoomRef, error) {
	k, err := message.ParseRoomKind(kind)
	if err != nil {
		return RoomRef{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return RoomRef{}, errs.NewValueIsRequiredError("room id")
	}
	return RoomRef{Kind: k, ID: id}, nil
}

func (r RoomRef) String() string {
	return string(r.Kind) + "/" + r.ID
}

// RoomResolver turns references and keys into authorization subjects by
// reading the current state of the entity behind the room.
type RoomResolver struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewRoomResolver(uowFactory ports.UnitOfWorkFactory) *RoomResolver {
	return &RoomResolver{uowFactory: uowFactory}
}

// Resolve maps a client reference to a subject. Malformed ids are
// validation errors; unknown entities or chat peers are not-found errors.
func (r *RoomResolver) Resolve(ctx context.Context, actorID kernel.UUID, ref RoomRef) (services.Subject, error) {
	switch ref.Kind {
	case message.OrderRoom:
		id, err := parseEntityID(ref.ID)
		if err != nil {
			return services.Subject{}, err
		}
		key, err := message.NewOrderRoomKey(id)
		if err != nil {
			return services.Subject{}, err
		}
		return r.ResolveKey(ctx, key)
	case message.TripRoom:
		id, err := parseEntityID(ref.ID)
		if err != nil {
			return services.Subject{}, err
		}
		key, err := message.NewTripRoomKey(id)
		if err != nil {
			return services.Subject{}, err
		}
		return r.ResolveKey(ctx, key)
	case message.DirectRoom:
		return r.resolveDirect(ctx, actorID, ref.ID)
	default:
		return services.Subject{}, errs.NewValueIsInvalidError("room kind")
	}
}

// ResolveKey snapshots the subject of an already known room.
func (r *RoomResolver) ResolveKey(ctx context.Context, key message.RoomKey) (services.Subject, error) {
	if err := key.Validate(); err != nil {
		return services.Subject{}, err
	}

	uow := r.uowFactory.Create()
	switch key.Kind() {
	case message.OrderRoom:
		o, err := uow.OrderRepository().Get(ctx, key.EntityID())
		if err != nil {
			return services.Subject{}, err
		}
		return services.OrderSubject(o)
	case message.TripRoom:
		t, err := uow.TripRepository().Get(ctx, key.EntityID())
		if err != nil {
			return services.Subject{}, err
		}
		return services.TripSubject(t)
	default:
		return services.DirectSubject(key)
	}
}

func (r *RoomResolver) resolveDirect(ctx context.Context, actorID kernel.UUID, id string) (services.Subject, error) {
	var (
		key message.RoomKey
		err error
	)
	if strings.Contains(id, "_") {
		var a, b kernel.UUID
		a, b, err = message.ParseParticipantPair(id)
		if err == nil {
			key, err = message.NewDirectRoomKey(a, b)
		}
	} else {
		var peer kernel.UUID
		peer, err = parseEntityID(id)
		if err == nil {
			key, err = message.NewDirectRoomKey(actorID, peer)
		}
	}
	if err != nil {
		return services.Subject{}, err
	}

	a, b, _ := key.Participants()
	repo := r.uowFactory.Create().ParticipantRepository()
	for _, pid := range []kernel.UUID{a, b} {
		if _, err := repo.Get(ctx, pid); err != nil {
			return services.Subject{}, err
		}
	}
	return services.DirectSubject(key)
}

func parseEntityID(raw string) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("room id", err)
	}
	return id, nil
}

// loadActor reads the acting participant. An id with no account behind it
// is an authentication failure, not a missing resource.
func loadActor(ctx context.Context, uow ports.UnitOfWork, id kernel.UUID) (*participant.Participant, error) {
	actor, err := uow.ParticipantRepository().Get(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, errs.NewUnauthenticatedErrorWithCause("unknown participant", err)
	}
	return actor, err
}
