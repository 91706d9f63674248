package postgres

import (
	"gorm.io/gorm"

	"superservice/internal/adapters/out/postgres/messagerepo"
	"superservice/internal/adapters/out/postgres/orderrepo"
	"superservice/internal/adapters/out/postgres/outboxrepo"
	"superservice/internal/adapters/out/postgres/participantrepo"
	"superservice/internal/adapters/out/postgres/triprepo"
	"superservice/internal/adapters/out/postgres/vehiclerepo"
)

// Models lists every table the adapter owns.
func Models() []any {
	return []any{
		&participantrepo.ParticipantDTO{},
		&vehiclerepo.VehicleDTO{},
		&orderrepo.OrderDTO{},
		&triprepo.TripDTO{},
		&messagerepo.MessageDTO{},
		&outboxrepo.EventDTO{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Tables lists table names in an order safe for TRUNCATE in tests.
func Tables() []string {
	return []string{"outbox_events", "messages", "trips", "orders", "vehicles", "participants"}
}
