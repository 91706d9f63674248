// Package messagerepo stores chat messages. Direct-room messages also carry
// the participant pair in their own columns so the inbox query can filter
// on them without parsing room keys.
package messagerepo

import (
	"time"

	"github.com/google/uuid"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
)

type MessageDTO struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RoomKey   string     `gorm:"type:varchar(96);not null;index:idx_messages_room_created,priority:1"`
	RoomKind  string     `gorm:"type:varchar(8);not null"`
	PeerLow   *uuid.UUID `gorm:"type:uuid;index"`
	PeerHigh  *uuid.UUID `gorm:"type:uuid;index"`
	SenderID  uuid.UUID  `gorm:"type:uuid;not null"`
	Body      string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"not null;index:idx_messages_room_created,priority:2"`
}

func (MessageDTO) TableName() string {
	return "messages"
}

func fromDomain(m *message.Message) MessageDTO {
	dto := MessageDTO{
		ID:        m.ID().Bytes(),
		RoomKey:   m.RoomKey().String(),
		RoomKind:  string(m.RoomKey().Kind()),
		SenderID:  m.Sender().Bytes(),
		Body:      m.Body(),
		CreatedAt: m.CreatedAt().UTC(),
	}
	if low, high, ok := m.RoomKey().Participants(); ok {
		l, h := low.Bytes(), high.Bytes()
		dto.PeerLow, dto.PeerHigh = &l, &h
	}
	return dto
}

func toDomain(dto MessageDTO) (*message.Message, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	room, err := message.ParseRoomKey(dto.RoomKey)
	if err != nil {
		return nil, err
	}
	sender, err := kernel.UUIDFromBytes(dto.SenderID[:])
	if err != nil {
		return nil, err
	}
	return message.NewMessage(id, room, sender, dto.Body, dto.CreatedAt)
}
