// Package queries contains read operations. Room history goes through the
// persistence port and the authorizer; the conversation list reads the
// messages table directly.
package queries

import (
	"errors"
	"time"

	"superservice/internal/core/application/realtime"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
	"superservice/internal/pkg/guard"
)

var ErrGetRoomHistoryQueryIsNotConstructed = errors.New(
	"GetRoomHistoryQuery must be created via NewGetRoomHistoryQuery constructor",
)

// MaxHistoryLimit bounds how many messages one history read returns.
const MaxHistoryLimit = 500

// GetRoomHistoryQuery asks for the latest messages of a room a participant
// belongs to. A zero limit means the handler's default.
//
// Example:
//
//	ref, _ := realtime.ParseRoomRef("order", orderID.String())
//	query, err := NewGetRoomHistoryQuery(actorID, ref, 0)
//	if err != nil {
//	    return err
//	}
//	history, err := handler.Handle(ctx, query)
type GetRoomHistoryQuery struct {
	actorID kernel.UUID
	room    realtime.RoomRef
	limit   int

	guard guard.ConstructorGuard
}

func NewGetRoomHistoryQuery(actorID kernel.UUID, room realtime.RoomRef, limit int) (GetRoomHistoryQuery, error) {
	var limitErr error
	if limit < 0 || limit > MaxHistoryLimit {
		limitErr = errs.NewValueIsOutOfRangeError("limit", limit, 0, MaxHistoryLimit)
	}
	var roomErr error
	if room.Kind == "" || room.ID == "" {
		roomErr = errs.NewValueIsRequiredError("room")
	}
	if err := errors.Join(actorID.Validate(), roomErr, limitErr); err != nil {
		return GetRoomHistoryQuery{}, err
	}

	return GetRoomHistoryQuery{
		actorID: actorID,
		room:    room,
		limit:   limit,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (q GetRoomHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetRoomHistoryQueryIsNotConstructed)
}

func (q GetRoomHistoryQuery) ActorID() kernel.UUID {
	return q.actorID
}

func (q GetRoomHistoryQuery) Room() realtime.RoomRef {
	return q.room
}

func (q GetRoomHistoryQuery) Limit() int {
	return q.limit
}

// RoomHistoryItem is one message as the requesting participant sees it.
type RoomHistoryItem struct {
	ID        kernel.UUID
	SenderID  kernel.UUID
	Username  string
	Body      string
	IsMe      bool
	Timestamp string
	CreatedAt time.Time
}

// RoomHistory is the answer to GetRoomHistoryQuery, oldest message first.
type RoomHistory struct {
	Room     string
	Messages []RoomHistoryItem
}
