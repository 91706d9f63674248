package participantrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/pkg/errs"
)

// GormParticipantRepository implements ports.ParticipantRepository using GORM.
type GormParticipantRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormParticipantRepository(db *gorm.DB, tracker aggregateTracker) *GormParticipantRepository {
	return &GormParticipantRepository{db: db, tracker: tracker}
}

func (r *GormParticipantRepository) Add(ctx context.Context, aggregate *participant.Participant) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewPersistenceError("insert participant", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update only writes the availability flag; accounts are owned elsewhere.
func (r *GormParticipantRepository) Update(ctx context.Context, aggregate *participant.Participant) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&ParticipantDTO{}).
		Where("id = ?", dto.ID).
		Update("available", dto.Available)
	if result.Error != nil {
		return errs.NewPersistenceError("update participant", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("participant", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormParticipantRepository) Get(ctx context.Context, id kernel.UUID) (*participant.Participant, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ParticipantDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("participant", id.String())
		}
		return nil, errs.NewPersistenceError("select participant", err)
	}

	return toDomain(dto)
}
