package order

import (
	"fmt"
	"slices"

	"superservice/internal/pkg/errs"
)

// AggregateName is used for room keys, actions and integration events.
const AggregateName = "order"

// Event names a transition that may be requested on an order.
type Event string

const (
	Accept        Event = "accept"
	MarkReady     Event = "mark_ready"
	StartDelivery Event = "start_delivery"
	Deliver       Event = "deliver"
	Cancel        Event = "cancel"
)

// Transition is one row of the order transition table.
type Transition struct {
	From []Status
	To   Status
}

// Transitions is the only source of allowed order status changes.
var Transitions = map[Event]Transition{
	Accept:        {From: []Status{Pending}, To: Preparing},
	MarkReady:     {From: []Status{Preparing}, To: Ready},
	StartDelivery: {From: []Status{Ready}, To: EnRoute},
	Deliver:       {From: []Status{EnRoute}, To: Delivered},
	Cancel:        {From: []Status{Pending, Preparing}, To: Cancelled},
}

// Events lists the order events in table order.
func Events() []Event {
	return []Event{Accept, MarkReady, StartDelivery, Deliver, Cancel}
}

// ParseEvent validates an event name coming from a transport adapter.
func ParseEvent(s string) (Event, error) {
	e := Event(s)
	if _, ok := Transitions[e]; !ok {
		return "", errs.NewValueIsInvalidErrorWithCause("event", fmt.Errorf("%q is not an order event", s))
	}
	return e, nil
}

// Action is the authorization action guarding the event, e.g. "order.accept".
func (e Event) Action() string {
	return AggregateName + "." + string(e)
}

func (e Event) String() string {
	return string(e)
}

// SourceStatuses returns the statuses e may be applied from. The
// persistence layer uses them for its conditional update.
func SourceStatuses(e Event) []Status {
	return slices.Clone(Transitions[e].From)
}

// Fire returns the status reached by applying e to s.
func (s Status) Fire(e Event) (Status, error) {
	t, ok := Transitions[e]
	if !ok {
		return Unknown, errs.NewValueIsInvalidErrorWithCause("event", fmt.Errorf("%q is not an order event", e))
	}
	if s.IsTerminal() {
		return Unknown, errs.NewStateConflictError(AggregateName, string(e), s.String(), "status is terminal")
	}
	if !slices.Contains(t.From, s) {
		return Unknown, errs.NewStateConflictError(AggregateName, string(e), s.String(), "event not allowed from current status")
	}
	return t.To, nil
}
