package queries

import (
	"errors"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/guard"
)

var ErrListConversationsQueryIsNotConstructed = errors.New(
	"ListConversationsQuery must be created via NewListConversationsQuery constructor",
)

// ListConversationsQuery asks for the direct chats of a participant.
type ListConversationsQuery struct {
	participantID kernel.UUID

	guard guard.ConstructorGuard
}

func NewListConversationsQuery(participantID kernel.UUID) (ListConversationsQuery, error) {
	if err := participantID.Validate(); err != nil {
		return ListConversationsQuery{}, err
	}
	return ListConversationsQuery{
		participantID: participantID,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (q ListConversationsQuery) Validate() error {
	return q.guard.Validate(ErrListConversationsQueryIsNotConstructed)
}

func (q ListConversationsQuery) ParticipantID() kernel.UUID {
	return q.participantID
}

// Conversation is one direct chat with its latest message.
type Conversation struct {
	Room         string
	PeerID       kernel.UUID
	PeerUsername string
	LastMessage  ConversationMessage
}

type ConversationMessage struct {
	ID        kernel.UUID
	SenderID  kernel.UUID
	Body      string
	IsMe      bool
	CreatedAt time.Time
}
