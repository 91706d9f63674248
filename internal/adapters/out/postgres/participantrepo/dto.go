// Package participantrepo maps participants to the participants table.
package participantrepo

import (
	"github.com/google/uuid"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/participant"
)

type ParticipantDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Available bool      `gorm:"not null;default:false"`
}

func (ParticipantDTO) TableName() string {
	return "participants"
}

func fromDomain(p *participant.Participant) ParticipantDTO {
	return ParticipantDTO{
		ID:        p.ID().Bytes(),
		Username:  p.Username(),
		Role:      string(p.Role()),
		Available: p.IsAvailable(),
	}
}

func toDomain(dto ParticipantDTO) (*participant.Participant, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	role, err := participant.ParseRole(dto.Role)
	if err != nil {
		return nil, err
	}
	return participant.NewParticipant(id, dto.Username, role, dto.Available)
}
