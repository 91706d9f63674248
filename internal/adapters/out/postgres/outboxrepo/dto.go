// Package outboxrepo stores integration events until the relay job
// publishes them.
package outboxrepo

import (
	"time"

	"github.com/google/uuid"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/outbox"
)

type EventDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AggregateType string     `gorm:"type:varchar(32);not null"`
	AggregateID   uuid.UUID  `gorm:"type:uuid;index;not null"`
	Name          string     `gorm:"type:varchar(32);not null"`
	FromStatus    string     `gorm:"type:varchar(32)"`
	ToStatus      string     `gorm:"type:varchar(32);not null"`
	ActorID       uuid.UUID  `gorm:"type:uuid;not null"`
	OccurredAt    time.Time  `gorm:"not null;index"`
	PublishedAt   *time.Time `gorm:"index"`
}

func (EventDTO) TableName() string {
	return "outbox_events"
}

func fromDomain(e *outbox.Event) EventDTO {
	return EventDTO{
		ID:            e.ID().Bytes(),
		AggregateType: e.AggregateType(),
		AggregateID:   e.AggregateID().Bytes(),
		Name:          e.Name(),
		FromStatus:    e.FromStatus(),
		ToStatus:      e.ToStatus(),
		ActorID:       e.ActorID().Bytes(),
		OccurredAt:    e.OccurredAt().UTC(),
		PublishedAt:   e.PublishedAt(),
	}
}

func toDomain(dto EventDTO) (*outbox.Event, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	aggregateID, err := kernel.UUIDFromBytes(dto.AggregateID[:])
	if err != nil {
		return nil, err
	}
	actorID, err := kernel.UUIDFromBytes(dto.ActorID[:])
	if err != nil {
		return nil, err
	}
	return outbox.RestoreEvent(id, dto.AggregateType, aggregateID, dto.Name,
		dto.FromStatus, dto.ToStatus, actorID, dto.OccurredAt, dto.PublishedAt)
}
