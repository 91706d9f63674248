package queries

import (
	"context"
	"errors"

	"superservice/internal/core/application/realtime"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/services"
	"superservice/internal/core/ports"
	"superservice/internal/pkg/errs"
)

// GetRoomHistoryQueryHandler returns what a participant missed in a room.
// The same membership rules as for joining apply.
type GetRoomHistoryQueryHandler struct {
	uowFactory   ports.UnitOfWorkFactory
	resolver     *realtime.RoomResolver
	authorizer   *services.Authorizer
	frames       *realtime.FrameFactory
	defaultLimit int
}

func NewGetRoomHistoryQueryHandler(
	uowFactory ports.UnitOfWorkFactory,
	resolver *realtime.RoomResolver,
	authorizer *services.Authorizer,
	frames *realtime.FrameFactory,
	defaultLimit int,
) *GetRoomHistoryQueryHandler {
	if defaultLimit <= 0 || defaultLimit > MaxHistoryLimit {
		defaultLimit = 50
	}
	return &GetRoomHistoryQueryHandler{
		uowFactory:   uowFactory,
		resolver:     resolver,
		authorizer:   authorizer,
		frames:       frames,
		defaultLimit: defaultLimit,
	}
}

func (h *GetRoomHistoryQueryHandler) Handle(ctx context.Context, query GetRoomHistoryQuery) (RoomHistory, error) {
	if err := query.Validate(); err != nil {
		return RoomHistory{}, err
	}

	uow := h.uowFactory.Create()
	participants := uow.ParticipantRepository()

	actor, err := participants.Get(ctx, query.ActorID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return RoomHistory{}, errs.NewUnauthenticatedErrorWithCause("unknown participant", err)
	}
	if err != nil {
		return RoomHistory{}, err
	}

	subject, err := h.resolver.Resolve(ctx, actor.ID(), query.Room())
	if err != nil {
		return RoomHistory{}, err
	}
	if err = h.authorizer.Authorize(actor, subject, services.ReadHistory); err != nil {
		return RoomHistory{}, err
	}

	limit := query.Limit()
	if limit == 0 {
		limit = h.defaultLimit
	}

	msgs, err := uow.MessageRepository().ListByRoom(ctx, subject.Room(), limit)
	if err != nil {
		return RoomHistory{}, err
	}

	usernames := map[kernel.UUID]string{actor.ID(): actor.Username()}
	items := make([]RoomHistoryItem, 0, len(msgs))
	for _, m := range msgs {
		name, ok := usernames[m.Sender()]
		if !ok {
			sender, err := participants.Get(ctx, m.Sender())
			switch {
			case err == nil:
				name = sender.Username()
			case errors.Is(err, errs.ErrObjectNotFound):
				name = ""
			default:
				return RoomHistory{}, err
			}
			usernames[m.Sender()] = name
		}

		items = append(items, RoomHistoryItem{
			ID:        m.ID(),
			SenderID:  m.Sender(),
			Username:  name,
			Body:      m.Body(),
			IsMe:      m.Sender().IsEqual(actor.ID()),
			Timestamp: h.frames.Timestamp(m.CreatedAt()),
			CreatedAt: m.CreatedAt(),
		})
	}

	return RoomHistory{Room: subject.Room().String(), Messages: items}, nil
}
