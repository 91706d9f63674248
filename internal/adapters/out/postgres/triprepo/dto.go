// Package triprepo maps trip aggregates to the trips table.
package triprepo

import (
	"time"

	"github.com/google/uuid"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/trip"
)

type TripDTO struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID   `gorm:"type:uuid;index;not null"`
	DriverID      *uuid.UUID  `gorm:"type:uuid;index"`
	VehicleID     *uuid.UUID  `gorm:"type:uuid"`
	Origin        GeoPointDTO `gorm:"embedded;embeddedPrefix:origin_"`
	Destination   GeoPointDTO `gorm:"embedded;embeddedPrefix:destination_"`
	ServiceType   string      `gorm:"type:varchar(16);not null"`
	Status        string      `gorm:"type:varchar(32);index;not null"`
	EstimatedFare *int64
	FinalFare     *int64
	CreatedAt     time.Time `gorm:"not null"`
	StartedAt     *time.Time
	FinalizedAt   *time.Time
}

func (TripDTO) TableName() string {
	return "trips"
}

// GeoPointDTO is embedded twice in the trips row.
type GeoPointDTO struct {
	Lat float64 `gorm:"type:double precision"`
	Lon float64 `gorm:"type:double precision"`
}

func fromDomain(t *trip.Trip) TripDTO {
	return TripDTO{
		ID:            t.ID().Bytes(),
		CustomerID:    t.Customer().Bytes(),
		DriverID:      optionalID(t.Driver()),
		VehicleID:     optionalID(t.Vehicle()),
		Origin:        GeoPointDTO{Lat: t.Origin().Latitude(), Lon: t.Origin().Longitude()},
		Destination:   GeoPointDTO{Lat: t.Destination().Latitude(), Lon: t.Destination().Longitude()},
		ServiceType:   string(t.ServiceType()),
		Status:        t.Status().String(),
		EstimatedFare: t.EstimatedFare(),
		FinalFare:     t.FinalFare(),
		CreatedAt:     t.CreatedAt().UTC(),
		StartedAt:     t.StartedAt(),
		FinalizedAt:   t.FinalizedAt(),
	}
}

func toDomain(dto TripDTO) (*trip.Trip, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := domainID(dto.DriverID)
	if err != nil {
		return nil, err
	}
	vehicleID, err := domainID(dto.VehicleID)
	if err != nil {
		return nil, err
	}
	origin, err := kernel.NewGeoPoint(dto.Origin.Lat, dto.Origin.Lon)
	if err != nil {
		return nil, err
	}
	destination, err := kernel.NewGeoPoint(dto.Destination.Lat, dto.Destination.Lon)
	if err != nil {
		return nil, err
	}
	status, err := trip.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return trip.RestoreTrip(
		id, customerID,
		driverID, vehicleID,
		origin, destination,
		trip.ServiceType(dto.ServiceType),
		status,
		dto.EstimatedFare, dto.FinalFare,
		dto.CreatedAt,
		dto.StartedAt, dto.FinalizedAt,
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
