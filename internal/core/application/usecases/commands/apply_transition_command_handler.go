package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"superservice/internal/core/application/realtime"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/core/domain/services"
	"superservice/internal/core/ports"
	"superservice/internal/pkg/errs"
)

const tracerName = "superservice/statemachine"

// notices is the text of the system frame announcing each transition.
var notices = map[string]string{
	order.Accept.Action():        "order accepted",
	order.MarkReady.Action():     "order ready for pickup",
	order.StartDelivery.Action(): "order on the way",
	order.Deliver.Action():       "order delivered",
	order.Cancel.Action():        "order cancelled",
	trip.Accept.Action():         "trip accepted",
	trip.StartPickup.Action():    "driver on the way to pickup",
	trip.StartTrip.Action():      "trip started",
	trip.Complete.Action():       "trip completed",
	trip.Cancel.Action():         "trip cancelled",
}

// TransitionResult describes an applied transition.
type TransitionResult struct {
	Room       message.RoomKey
	EntityType string
	EntityID   kernel.UUID
	Event      string
	From       string
	To         string
	ActorID    kernel.UUID
	OccurredAt time.Time
}

// ApplyTransitionCommandHandler is the entity state machine. It authorizes
// the actor, fires the event on the aggregate, writes the new state with a
// conditional update together with an outbox event, and after the commit
// announces the change to the entity's room.
//
// Of two concurrent accepts of the same entity exactly one succeeds; the
// other gets an errs.StateConflictError.
//
// Example:
//
//	cmd, _ := NewApplyTransitionCommand("order", orderID, courierID, "accept")
//	result, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrForbidden):
//	    // not allowed, nothing changed
//	case errors.Is(err, errs.ErrStateConflict):
//	    // somebody else got there first
//	}
type ApplyTransitionCommandHandler struct {
	uowFactory ports.UnitOfWorkFactory
	authorizer *services.Authorizer
	publisher  ports.RoomPublisher
	frames     *realtime.FrameFactory
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

func NewApplyTransitionCommandHandler(
	uowFactory ports.UnitOfWorkFactory,
	authorizer *services.Authorizer,
	publisher ports.RoomPublisher,
	frames *realtime.FrameFactory,
	logger *slog.Logger,
) *ApplyTransitionCommandHandler {
	return &ApplyTransitionCommandHandler{
		uowFactory: uowFactory,
		authorizer: authorizer,
		publisher:  publisher,
		frames:     frames,
		logger:     logger.With("component", "state_machine"),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

func (h *ApplyTransitionCommandHandler) Handle(ctx context.Context, cmd ApplyTransitionCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}

	ctx, span := h.tracer.Start(ctx, "statemachine.apply", trace.WithAttributes(
		attribute.String("entity.type", string(cmd.Entity())),
		attribute.String("entity.id", cmd.EntityID().String()),
		attribute.String("event", cmd.Event()),
		attribute.String("actor.id", cmd.ActorID().String()),
	))
	defer span.End()

	result, err := h.apply(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errs.Kind(err))
		h.logger.WarnContext(ctx, "transition rejected",
			"entity", cmd.Entity(),
			"entity_id", cmd.EntityID().String(),
			"event", cmd.Event(),
			"actor_id", cmd.ActorID().String(),
			"kind", errs.Kind(err),
			"error", err)
		return TransitionResult{}, err
	}

	span.SetAttributes(attribute.String("status.from", result.From), attribute.String("status.to", result.To))
	h.logger.InfoContext(ctx, "transition applied",
		"entity", result.EntityType,
		"entity_id", result.EntityID.String(),
		"event", result.Event,
		"from", result.From,
		"to", result.To,
		"actor_id", result.ActorID.String())

	h.announce(ctx, result)
	return result, nil
}

func (h *ApplyTransitionCommandHandler) apply(ctx context.Context, cmd ApplyTransitionCommand) (TransitionResult, error) {
	uow, release, err := begin(ctx, h.uowFactory)
	if err != nil {
		return TransitionResult{}, err
	}
	defer release()

	now := h.now()

	var result TransitionResult
	switch cmd.Entity() {
	case message.OrderRoom:
		result, err = h.applyOrder(ctx, uow, cmd, now)
	case message.TripRoom:
		result, err = h.applyTrip(ctx, uow, cmd, now)
	default:
		err = errs.NewValueIsInvalidError("entity")
	}
	if err != nil {
		return TransitionResult{}, err
	}

	event, err := outbox.NewEvent(kernel.NewUUID(), result.EntityType, result.EntityID,
		result.Event, result.From, result.To, result.ActorID, now)
	if err != nil {
		return TransitionResult{}, err
	}
	if err = uow.OutboxRepository().Add(ctx, event); err != nil {
		return TransitionResult{}, persistence("append outbox event", err)
	}

	if err = commit(ctx, uow, h.logger); err != nil {
		return TransitionResult{}, err
	}

	return result, nil
}

func (h *ApplyTransitionCommandHandler) applyOrder(
	ctx context.Context,
	uow ports.UnitOfWork,
	cmd ApplyTransitionCommand,
	now time.Time,
) (TransitionResult, error) {
	event, err := order.ParseEvent(cmd.Event())
	if err != nil {
		return TransitionResult{}, err
	}

	repo := uow.OrderRepository()
	o, err := repo.Get(ctx, cmd.EntityID())
	if err != nil {
		return TransitionResult{}, persistence("load order", err)
	}

	actor, err := loadActor(ctx, uow, cmd.ActorID())
	if err != nil {
		return TransitionResult{}, err
	}

	subject, err := services.OrderSubject(o)
	if err != nil {
		return TransitionResult{}, err
	}
	if err = h.authorizer.Authorize(actor, subject, services.OrderAction(event)); err != nil {
		return TransitionResult{}, err
	}

	// The courier's vehicle is informational for orders.
	var vehicleID *kernel.UUID
	if event == order.Accept {
		v, err := findApprovedVehicle(ctx, uow, actor)
		if err != nil {
			return TransitionResult{}, err
		}
		if v != nil {
			id := v.ID()
			vehicleID = &id
		}
	}

	from, err := o.Apply(event, actor.ID(), vehicleID, now)
	if err != nil {
		return TransitionResult{}, err
	}

	if err = repo.UpdateIfStatus(ctx, o, order.SourceStatuses(event)); err != nil {
		return TransitionResult{}, persistence("update order", err)
	}

	return TransitionResult{
		Room:       subject.Room(),
		EntityType: order.AggregateName,
		EntityID:   o.ID(),
		Event:      event.String(),
		From:       from.String(),
		To:         o.Status().String(),
		ActorID:    actor.ID(),
		OccurredAt: now,
	}, nil
}

func (h *ApplyTransitionCommandHandler) applyTrip(
	ctx context.Context,
	uow ports.UnitOfWork,
	cmd ApplyTransitionCommand,
	now time.Time,
) (TransitionResult, error) {
	event, err := trip.ParseEvent(cmd.Event())
	if err != nil {
		return TransitionResult{}, err
	}

	repo := uow.TripRepository()
	t, err := repo.Get(ctx, cmd.EntityID())
	if err != nil {
		return TransitionResult{}, persistence("load trip", err)
	}

	actor, err := loadActor(ctx, uow, cmd.ActorID())
	if err != nil {
		return TransitionResult{}, err
	}

	subject, err := services.TripSubject(t)
	if err != nil {
		return TransitionResult{}, err
	}
	if err = h.authorizer.Authorize(actor, subject, services.TripAction(event)); err != nil {
		return TransitionResult{}, err
	}

	// A nil vehicle makes Apply refuse the accept.
	var v *vehicle.Vehicle
	if event == trip.Accept {
		if v, err = findApprovedVehicle(ctx, uow, actor); err != nil {
			return TransitionResult{}, err
		}
	}

	from, err := t.Apply(event, actor.ID(), v, now)
	if err != nil {
		return TransitionResult{}, err
	}

	if err = repo.UpdateIfStatus(ctx, t, trip.SourceStatuses(event)); err != nil {
		return TransitionResult{}, persistence("update trip", err)
	}

	return TransitionResult{
		Room:       subject.Room(),
		EntityType: trip.AggregateName,
		EntityID:   t.ID(),
		Event:      event.String(),
		From:       from.String(),
		To:         t.Status().String(),
		ActorID:    actor.ID(),
		OccurredAt: now,
	}, nil
}

func (h *ApplyTransitionCommandHandler) announce(ctx context.Context, result TransitionResult) {
	text, ok := notices[result.EntityType+"."+result.Event]
	if !ok {
		text = result.EntityType + " " + result.To
	}
	h.publisher.Publish(ctx, result.Room, h.frames.System(text, result.Event, result.To, result.OccurredAt))
}

// findApprovedVehicle returns nil when the driver has no approved vehicle.
func findApprovedVehicle(ctx context.Context, uow ports.UnitOfWork, actor *participant.Participant) (*vehicle.Vehicle, error) {
	v, err := uow.VehicleRepository().FindApprovedByDriver(ctx, actor.ID())
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, errs.ErrObjectNotFound):
		return nil, nil
	default:
		return nil, persistence("find approved vehicle", err)
	}
}
