package orderrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/pkg/errs"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewPersistenceError("insert order", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, errs.NewPersistenceError("select order", err)
	}

	return toDomain(dto)
}

// UpdateIfStatus issues UPDATE ... WHERE id = ? AND status IN (from). When
// no row matches it reads the row back to tell a missing order from a
// concurrent transition.
func (r *GormOrderRepository) UpdateIfStatus(ctx context.Context, aggregate *order.Order, from []order.Status) error {
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
		Model(&OrderDTO{}).
		Where("id = ? AND status IN ?", dto.ID, names).
		Select("courier_id", "vehicle_id", "status", "delivered_at").
		Updates(&dto)
	if result.Error != nil {
		return errs.NewPersistenceError("update order", result.Error)
	}

	if result.RowsAffected == 0 {
		var current OrderDTO
		err := r.db.WithContext(ctx).Select("status").First(&current, "id = ?", dto.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		if err != nil {
			return errs.NewPersistenceError("select order status", err)
		}
		return errs.NewStateConflictError(order.AggregateName, "update", current.Status, "status changed concurrently")
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}
