package outbox

import (
	"errors"
	"strings"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

var ErrEventIsNotConstructed = errors.New("Event must be created via NewEvent constructor")

// Event records one applied status transition for integration consumers.
// It is written in the same transaction as the status change and relayed
// to the broker later.
type Event struct {
	id            kernel.UUID
	aggregateType string
	aggregateID   kernel.UUID
	name          string
	fromStatus    string
	toStatus      string
	actorID       kernel.UUID
	occurredAt    time.Time
	publishedAt   *time.Time

	isConstructed bool
}

// NewEvent records a transition that has not been published yet.
func NewEvent(
	id kernel.UUID,
	aggregateType string,
	aggregateID kernel.UUID,
	name, fromStatus, toStatus string,
	actorID kernel.UUID,
	occurredAt time.Time,
) (*Event, error) {
	return RestoreEvent(id, aggregateType, aggregateID, name, fromStatus, toStatus, actorID, occurredAt, nil)
}

func RestoreEvent(
	id kernel.UUID,
	aggregateType string,
	aggregateID kernel.UUID,
	name, fromStatus, toStatus string,
	actorID kernel.UUID,
	occurredAt time.Time,
	publishedAt *time.Time,
) (*Event, error) {
	e := &Event{
		id:            id,
		aggregateType: strings.TrimSpace(aggregateType),
		aggregateID:   aggregateID,
		name:          strings.TrimSpace(name),
		fromStatus:    fromStatus,
		toStatus:      toStatus,
		actorID:       actorID,
		occurredAt:    occurredAt,
		publishedAt:   publishedAt,
		isConstructed: true,
	}

	var missing []error
	if e.aggregateType == "" {
		missing = append(missing, errs.NewValueIsRequiredError("aggregate type"))
	}
	if e.name == "" {
		missing = append(missing, errs.NewValueIsRequiredError("event name"))
	}
	if toStatus == "" {
		missing = append(missing, errs.NewValueIsRequiredError("status"))
	}
	if err := errors.Join(append(missing, id.Validate(), aggregateID.Validate(), actorID.Validate())...); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Event) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEventIsNotConstructed
	}
	return nil
}

func (e *Event) ID() kernel.UUID {
	return e.id
}

func (e *Event) AggregateType() string {
	return e.aggregateType
}

func (e *Event) AggregateID() kernel.UUID {
	return e.aggregateID
}

func (e *Event) Name() string {
	return e.name
}

func (e *Event) FromStatus() string {
	return e.fromStatus
}

func (e *Event) ToStatus() string {
	return e.toStatus
}

func (e *Event) ActorID() kernel.UUID {
	return e.actorID
}

func (e *Event) OccurredAt() time.Time {
	return e.occurredAt
}

func (e *Event) PublishedAt() *time.Time {
	return e.publishedAt
}

func (e *Event) IsPublished() bool {
	return e.publishedAt != nil
}

// RoutingKey is the topic the event is published under, e.g.
// "order.status.accept".
func (e *Event) RoutingKey() string {
	return e.aggregateType + ".status." + e.name
}

// MarkPublished stamps the event once the broker confirmed it. The first
// stamp wins.
func (e *Event) MarkPublished(at time.Time) {
	if e.publishedAt != nil {
		return
	}
	e.publishedAt = &at
}
