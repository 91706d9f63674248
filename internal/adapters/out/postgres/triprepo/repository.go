package triprepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/pkg/errs"
)

// GormTripRepository implements ports.TripRepository using GORM.
type GormTripRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormTripRepository(db *gorm.DB, tracker aggregateTracker) *GormTripRepository {
	return &GormTripRepository{db: db, tracker: tracker}
}

func (r *GormTripRepository) Add(ctx context.Context, aggregate *trip.Trip) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewPersistenceError("insert trip", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormTripRepository) Get(ctx context.Context, id kernel.UUID) (*trip.Trip, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TripDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("trip", id.String())
		}
		return nil, errs.NewPersistenceError("select trip", err)
	}

	return toDomain(dto)
}

// UpdateIfStatus writes the mutable trip columns only while the stored
// status is one of from.
func (r *GormTripRepository) UpdateIfStatus(ctx context.Context, aggregate *trip.Trip, from []trip.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if len(from) == 0 {
		return errs.NewValueIsRequiredError("source statuses")
	}

	names := make([]string, 0, len(from))
	for _, s := range from {
		names = append(names, s.String())
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&TripDTO{}).
		Where("id = ? AND status IN ?", dto.ID, names).
		Select("driver_id", "vehicle_id", "status", "final_fare", "started_at", "finalized_at").
		Updates(&dto)
	if result.Error != nil {
		return errs.NewPersistenceError("update trip", result.Error)
	}

	if result.RowsAffected == 0 {
		var current TripDTO
		err := r.db.WithContext(ctx).Select("status").First(&current, "id = ?", dto.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("trip", aggregate.ID().String())
		}
		if err != nil {
			return errs.NewPersistenceError("select trip status", err)
		}
		return errs.NewStateConflictError(trip.AggregateName, "update", current.Status, "status changed concurrently")
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}
