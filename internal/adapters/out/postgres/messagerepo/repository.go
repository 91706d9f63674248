package messagerepo

import (
	"context"
	"slices"

	"gorm.io/gorm"

	"superservice/internal/core/domain/model/message"
	"superservice/internal/pkg/errs"
)

// GormMessageRepository implements ports.MessageRepository using GORM.
// Messages are not aggregates and are not tracked.
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Add(ctx context.Context, msg *message.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	dto := fromDomain(msg)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewPersistenceError("insert message", err)
	}
	return nil
}

// ListByRoom reads the newest limit rows and returns them oldest first.
func (r *GormMessageRepository) ListByRoom(ctx context.Context, room message.RoomKey, limit int) ([]*message.Message, error) {
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	var dtos []MessageDTO
	err := r.db.WithContext(ctx).
		Where("room_key = ?", room.String()).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewPersistenceError("select messages", err)
	}

	slices.Reverse(dtos)
	msgs := make([]*message.Message, 0, len(dtos))
	for _, dto := range dtos {
		m, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
