package queries

import (
	"context"
	"errors"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/ports"
	"superservice/internal/pkg/errs"
)

// DirectRoomLister reports the last message of every direct room of a
// participant, newest first.
type DirectRoomLister interface {
	ListDirectRooms(participantID kernel.UUID) []*message.Message
}

// RoomListConversationsQueryHandler answers ListConversationsQuery without
// SQL, for runs on the in-memory store.
type RoomListConversationsQueryHandler struct {
	rooms      DirectRoomLister
	uowFactory ports.UnitOfWorkFactory
}

func NewRoomListConversationsQueryHandler(rooms DirectRoomLister, uowFactory ports.UnitOfWorkFactory) RoomListConversationsQueryHandler {
	return RoomListConversationsQueryHandler{rooms: rooms, uowFactory: uowFactory}
}

func (h RoomListConversationsQueryHandler) Handle(ctx context.Context, query ListConversationsQuery) ([]Conversation, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	me := query.ParticipantID()
	participants := h.uowFactory.Create().ParticipantRepository()
	conversations := make([]Conversation, 0)

	for _, m := range h.rooms.ListDirectRooms(me) {
		peerID, ok := m.RoomKey().Peer(me)
		if !ok {
			continue
		}
		peer, err := participants.Get(ctx, peerID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		conversations = append(conversations, Conversation{
			Room:         m.RoomKey().String(),
			PeerID:       peerID,
			PeerUsername: peer.Username(),
			LastMessage: ConversationMessage{
				ID:        m.ID(),
				SenderID:  m.Sender(),
				Body:      m.Body(),
				IsMe:      m.Sender().IsEqual(me),
				CreatedAt: m.CreatedAt(),
			},
		})
	}

	return conversations, nil
}
