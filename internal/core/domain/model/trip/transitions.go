package trip

import (
	"fmt"
	"slices"

	"superservice/internal/pkg/errs"
)

const AggregateName = "trip"

type Event string

const (
	Accept      Event = "accept"
	StartPickup Event = "start_pickup"
	StartTrip   Event = "start_trip"
	Complete    Event = "complete"
	Cancel      Event = "cancel"
)

type Transition struct {
	From []Status
	To   Status
}

// Transitions is the only source of allowed trip status changes.
var Transitions = map[Event]Transition{
	Accept:      {From: []Status{Requested}, To: Accepted},
	StartPickup: {From: []Status{Accepted}, To: EnRouteToPickup},
	StartTrip:   {From: []Status{EnRouteToPickup}, To: InProgress},
	Complete:    {From: []Status{InProgress}, To: Completed},
	Cancel:      {From: []Status{Requested, Accepted}, To: Cancelled},
}

func Events() []Event {
	return []Event{Accept, StartPickup, StartTrip, Complete, Cancel}
}

func ParseEvent(s string) (Event, error) {
	e := Event(s)
	if _, ok := Transitions[e]; !ok {
		return "", errs.NewValueIsInvalidErrorWithCause("event", fmt.Errorf("%q is not a trip event", s))
	}
	return e, nil
}

func (e Event) Action() string {
	return AggregateName + "." + string(e)
}

func (e Event) String() string {
	return string(e)
}

func SourceStatuses(e Event) []Status {
	return slices.Clone(Transitions[e].From)
}

func (s Status) Fire(e Event) (Status, error) {
	t, ok := Transitions[e]
	if !ok {
		return Unknown, errs.NewValueIsInvalidErrorWithCause("event", fmt.Errorf("%q is not a trip event", e))
	}
	if s.IsTerminal() {
		return Unknown, errs.NewStateConflictError(AggregateName, string(e), s.String(), "status is terminal")
	}
	if !slices.Contains(t.From, s) {
		return Unknown, errs.NewStateConflictError(AggregateName, string(e), s.String(), "event not allowed from current status")
	}
	return t.To, nil
}
