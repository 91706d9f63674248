package vehiclerepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/pkg/errs"
)

// GormVehicleRepository implements ports.VehicleRepository using GORM.
type GormVehicleRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormVehicleRepository(db *gorm.DB, tracker aggregateTracker) *GormVehicleRepository {
	return &GormVehicleRepository{db: db, tracker: tracker}
}

func (r *GormVehicleRepository) Add(ctx context.Context, aggregate *vehicle.Vehicle) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewPersistenceError("insert vehicle", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormVehicleRepository) Update(ctx context.Context, aggregate *vehicle.Vehicle) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&VehicleDTO{}).
		Where("id = ?", dto.ID).
		Select("kind", "model", "plate", "approved").
		Updates(&dto)
	if result.Error != nil {
		return errs.NewPersistenceError("update vehicle", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("vehicle", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormVehicleRepository) Get(ctx context.Context, id kernel.UUID) (*vehicle.Vehicle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto VehicleDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("vehicle", id.String())
		}
		return nil, errs.NewPersistenceError("select vehicle", err)
	}

	return toDomain(dto)
}

// FindApprovedByDriver picks the approved vehicle with the lowest id.
func (r *GormVehicleRepository) FindApprovedByDriver(ctx context.Context, driverID kernel.UUID) (*vehicle.Vehicle, error) {
	if err := driverID.Validate(); err != nil {
		return nil, err
	}

	var dto VehicleDTO
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND approved = ?", driverID.Bytes(), true).
		Order("id").
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("approved vehicle of driver", driverID.String())
		}
		return nil, errs.NewPersistenceError("select approved vehicle", err)
	}

	return toDomain(dto)
}
