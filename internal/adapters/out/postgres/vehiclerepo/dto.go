// Package vehiclerepo maps vehicles to the vehicles table.
package vehiclerepo

import (
	"github.com/google/uuid"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/vehicle"
)

type VehicleDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriverID uuid.UUID `gorm:"type:uuid;index:idx_vehicles_driver_approved;not null"`
	Kind     string    `gorm:"type:varchar(16);not null"`
	Model    string    `gorm:"type:varchar(100)"`
	Plate    string    `gorm:"type:varchar(10);uniqueIndex;not null"`
	Approved bool      `gorm:"index:idx_vehicles_driver_approved;not null;default:false"`
}

func (VehicleDTO) TableName() string {
	return "vehicles"
}

func fromDomain(v *vehicle.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:       v.ID().Bytes(),
		DriverID: v.Driver().Bytes(),
		Kind:     string(v.Kind()),
		Model:    v.Model(),
		Plate:    v.Plate(),
		Approved: v.IsApproved(),
	}
}

func toDomain(dto VehicleDTO) (*vehicle.Vehicle, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}
	return vehicle.RestoreVehicle(id, driverID, vehicle.Kind(dto.Kind), dto.Model, dto.Plate, dto.Approved)
}
