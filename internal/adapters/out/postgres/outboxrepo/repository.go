package outboxrepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/pkg/errs"
)

// GormOutboxRepository implements ports.OutboxRepository using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, event *outbox.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	dto := fromDomain(event)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewPersistenceError("insert outbox event", err)
	}
	return nil
}

func (r *GormOutboxRepository) ListUnpublished(ctx context.Context, limit int) ([]*outbox.Event, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	var dtos []EventDTO
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("occurred_at, id").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewPersistenceError("select outbox events", err)
	}

	events := make([]*outbox.Event, 0, len(dtos))
	for _, dto := range dtos {
		e, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// MarkPublished stamps the events that are still unpublished; already
// published rows keep their first timestamp.
func (r *GormOutboxRepository) MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	raw := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.Bytes())
	}

	err := r.db.WithContext(ctx).
		Model(&EventDTO{}).
		Where("id IN ? AND published_at IS NULL", raw).
		Update("published_at", at.UTC()).Error
	if err != nil {
		return errs.NewPersistenceError("mark outbox events published", err)
	}
	return nil
}
