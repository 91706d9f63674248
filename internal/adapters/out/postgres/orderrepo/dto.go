// Package orderrepo maps order aggregates to the orders table.
package orderrepo

import (
	"time"

	"github.com/google/uuid"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/order"
)

// OrderDTO is the orders row. Status is stored by name so the conditional
// update can filter on it directly.
type OrderDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	MerchantID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	CourierID       *uuid.UUID `gorm:"type:uuid;index"`
	VehicleID       *uuid.UUID `gorm:"type:uuid"`
	Status          string     `gorm:"type:varchar(32);index;not null"`
	Subtotal        int64      `gorm:"not null"`
	DeliveryFee     int64      `gorm:"not null"`
	DeliveryAddress string     `gorm:"type:text;not null"`
	CreatedAt       time.Time  `gorm:"not null"`
	DeliveredAt     *time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:              o.ID().Bytes(),
		CustomerID:      o.Customer().Bytes(),
		MerchantID:      o.Merchant().Bytes(),
		CourierID:       optionalID(o.Courier()),
		VehicleID:       optionalID(o.Vehicle()),
		Status:          o.Status().String(),
		Subtotal:        o.Subtotal(),
		DeliveryFee:     o.DeliveryFee(),
		DeliveryAddress: o.DeliveryAddress(),
		CreatedAt:       o.CreatedAt().UTC(),
		DeliveredAt:     o.DeliveredAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	merchantID, err := kernel.UUIDFromBytes(dto.MerchantID[:])
	if err != nil {
		return nil, err
	}
	courierID, err := domainID(dto.CourierID)
	if err != nil {
		return nil, err
	}
	vehicleID, err := domainID(dto.VehicleID)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id, customerID, merchantID,
		courierID, vehicleID,
		status,
		dto.Subtotal, dto.DeliveryFee,
		dto.DeliveryAddress,
		dto.CreatedAt,
		dto.DeliveredAt,
	)
}

func optionalID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func domainID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes((*raw)[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}
