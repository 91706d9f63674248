package memory

import (
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/core/domain/model/vehicle"
)

// The store never shares aggregates with callers. Each clone goes through
// the Restore constructors, the same way the SQL adapter rebuilds rows.

func cloneParticipant(p *participant.Participant) (*participant.Participant, error) {
	return participant.NewParticipant(p.ID(), p.Username(), p.Role(), p.IsAvailable())
}

func cloneOrder(o *order.Order) (*order.Order, error) {
	return order.RestoreOrder(
		o.ID(), o.Customer(), o.Merchant(),
		ptrUUID(o.Courier()), ptrUUID(o.Vehicle()),
		o.Status(),
		o.Subtotal(), o.DeliveryFee(),
		o.DeliveryAddress(),
		o.CreatedAt(),
		ptrTime(o.DeliveredAt()),
	)
}

func cloneTrip(t *trip.Trip) (*trip.Trip, error) {
	return trip.RestoreTrip(
		t.ID(), t.Customer(),
		ptrUUID(t.Driver()), ptrUUID(t.Vehicle()),
		t.Origin(), t.Destination(),
		t.ServiceType(),
		t.Status(),
		ptrInt64(t.EstimatedFare()), ptrInt64(t.FinalFare()),
		t.CreatedAt(),
		ptrTime(t.StartedAt()), ptrTime(t.FinalizedAt()),
	)
}

func cloneVehicle(v *vehicle.Vehicle) (*vehicle.Vehicle, error) {
	return vehicle.RestoreVehicle(v.ID(), v.Driver(), v.Kind(), v.Model(), v.Plate(), v.IsApproved())
}

func cloneEvent(e *outbox.Event) (*outbox.Event, error) {
	return outbox.RestoreEvent(
		e.ID(), e.AggregateType(), e.AggregateID(),
		e.Name(), e.FromStatus(), e.ToStatus(),
		e.ActorID(), e.OccurredAt(), ptrTime(e.PublishedAt()),
	)
}

func ptrUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func ptrInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
