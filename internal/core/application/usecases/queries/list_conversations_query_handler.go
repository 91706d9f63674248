package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

// ListConversationsQueryHandler builds the chat inbox straight from the
// messages table: one row per direct room of the participant, newest
// conversation first.
//
// Example:
//
//	handler := NewListConversationsQueryHandler(db)
//	query, _ := NewListConversationsQuery(participantID)
//
//	conversations, err := handler.Handle(ctx, query)
//	for _, c := range conversations {
//	    fmt.Printf("%s: %s\n", c.PeerUsername, c.LastMessage.Body)
//	}
type ListConversationsQueryHandler struct {
	db *gorm.DB
}

func NewListConversationsQueryHandler(db *gorm.DB) ListConversationsQueryHandler {
	return ListConversationsQueryHandler{db: db}
}

func (h ListConversationsQueryHandler) Handle(ctx context.Context, query ListConversationsQuery) ([]Conversation, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	me := query.ParticipantID().Bytes()
	conversations := make([]Conversation, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			last.room_key,
			p.id,
			p.username,
			last.id,
			last.sender_id,
			last.body,
			last.created_at
		FROM (
			SELECT DISTINCT ON (m.room_key)
				m.room_key,
				m.id,
				m.sender_id,
				m.body,
				m.created_at,
				CASE WHEN m.peer_low = @me THEN m.peer_high ELSE m.peer_low END AS peer_id
			FROM messages m
			WHERE m.room_kind = 'chat'
				AND (m.peer_low = @me OR m.peer_high = @me)
			ORDER BY m.room_key, m.created_at DESC, m.id DESC
		) AS last
		JOIN participants p ON p.id = last.peer_id
		ORDER BY last.created_at DESC, last.id DESC
	`, map[string]any{"me": me}).Rows()
	if err != nil {
		return nil, errs.NewPersistenceError("list conversations", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c                     Conversation
			peerID, msgID, sender uuid.UUID
			createdAt             time.Time
		)
		if err = rows.Scan(&c.Room, &peerID, &c.PeerUsername, &msgID, &sender, &c.LastMessage.Body, &createdAt); err != nil {
			return nil, errs.NewPersistenceError("scan conversation", err)
		}

		if c.PeerID, err = kernel.UUIDFromBytes(peerID[:]); err != nil {
			return nil, err
		}
		if c.LastMessage.ID, err = kernel.UUIDFromBytes(msgID[:]); err != nil {
			return nil, err
		}
		if c.LastMessage.SenderID, err = kernel.UUIDFromBytes(sender[:]); err != nil {
			return nil, err
		}
		c.LastMessage.IsMe = c.LastMessage.SenderID.IsEqual(query.ParticipantID())
		c.LastMessage.CreatedAt = createdAt
		conversations = append(conversations, c)
	}

	if err = rows.Err(); err != nil {
		return nil, errs.NewPersistenceError("list conversations", err)
	}

	return conversations, nil
}
