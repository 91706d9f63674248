package services

import (
	"fmt"
	"strings"

	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/pkg/errs"
)

// Action is something an actor asks to do to a subject. Room actions are
// plain names; entity transitions are "<aggregate>.<event>".
type Action string

const (
	JoinRoom    Action = "join_room"
	SendMessage Action = "send_message"
	ReadHistory Action = "read_history"
)

// OrderAction is the action guarding an order event.
func OrderAction(e order.Event) Action {
	return Action(e.Action())
}

// TripAction is the action guarding a trip event.
func TripAction(e trip.Event) Action {
	return Action(e.Action())
}

// Relation is what the actor must be to the subject for a rule to pass.
type Relation int

const (
	// Anyone with the role.
	RelationAny Relation = iota + 1
	// Logical member of the room.
	RelationMember
	// The entity's customer.
	RelationCustomer
	// The entity's assigned courier or driver.
	RelationAssignee
	// The order's merchant.
	RelationMerchant
)

func (r Relation) String() string {
	switch r {
	case RelationAny:
		return "any"
	case RelationMember:
		return "member"
	case RelationCustomer:
		return "customer"
	case RelationAssignee:
		return "assignee"
	case RelationMerchant:
		return "merchant"
	default:
		return "unknown"
	}
}

// Rule grants an action to a role.
type Rule struct {
	Relation Relation
	// MustBeAvailable additionally requires the actor's availability flag.
	MustBeAvailable bool
}

// PermissionTable maps action and role to the rule granting it. A missing
// entry denies.
type PermissionTable map[Action]map[participant.Role]Rule

// DefaultPermissions is the permission table of the service.
func DefaultPermissions() PermissionTable {
	roomRules := map[participant.Role]Rule{
		participant.Customer:      {Relation: RelationMember},
		participant.Courier:       {Relation: RelationMember},
		participant.Driver:        {Relation: RelationMember},
		participant.Merchant:      {Relation: RelationMember},
		participant.Administrator: {Relation: RelationAny},
	}
	customerOrAdmin := map[participant.Role]Rule{
		participant.Customer:      {Relation: RelationCustomer},
		participant.Administrator: {Relation: RelationAny},
	}

	return PermissionTable{
		JoinRoom:    roomRules,
		SendMessage: roomRules,
		ReadHistory: roomRules,

		OrderAction(order.Accept): {
			participant.Courier: {Relation: RelationAny, MustBeAvailable: true},
		},
		OrderAction(order.MarkReady): {
			participant.Merchant:      {Relation: RelationMerchant},
			participant.Administrator: {Relation: RelationAny},
		},
		OrderAction(order.StartDelivery): {
			participant.Courier: {Relation: RelationAssignee},
		},
		OrderAction(order.Deliver): {
			participant.Courier: {Relation: RelationAssignee},
		},
		OrderAction(order.Cancel): customerOrAdmin,

		TripAction(trip.Accept): {
			participant.Driver: {Relation: RelationAny, MustBeAvailable: true},
		},
		TripAction(trip.StartPickup): {
			participant.Driver: {Relation: RelationAssignee},
		},
		TripAction(trip.StartTrip): {
			participant.Driver: {Relation: RelationAssignee},
		},
		TripAction(trip.Complete): {
			participant.Driver: {Relation: RelationAssignee},
		},
		TripAction(trip.Cancel): customerOrAdmin,
	}
}

// Authorizer decides whether an actor may perform an action on a subject.
// It is pure: the decision depends only on its arguments and the table.
//
// Example:
//
//	authz := services.NewAuthorizer()
//	subject, _ := services.OrderSubject(o)
//	if err := authz.Authorize(actor, subject, services.JoinRoom); err != nil {
//	    // errs.ErrForbidden or errs.ErrUnauthenticated
//	}
type Authorizer struct {
	table PermissionTable
}

func NewAuthorizer() *Authorizer {
	return &Authorizer{table: DefaultPermissions()}
}

// NewAuthorizerWithTable is used by tests that need a narrower table.
func NewAuthorizerWithTable(table PermissionTable) *Authorizer {
	return &Authorizer{table: table}
}

// Authorize returns nil when allowed, an UnauthenticatedError for a missing
// actor and a ForbiddenError otherwise.
func (a *Authorizer) Authorize(actor *participant.Participant, subject Subject, action Action) error {
	if err := actor.Validate(); err != nil {
		return errs.NewUnauthenticatedErrorWithCause("unknown actor", err)
	}
	if err := subject.room.Validate(); err != nil {
		return errs.NewForbiddenError(actor.ID().String(), string(action), "no subject")
	}

	actorID := actor.ID().String()

	if kind, ok := action.entityKind(); ok && kind != subject.room.Kind() {
		return errs.NewForbiddenError(actorID, string(action),
			fmt.Sprintf("action does not apply to %s rooms", subject.room.Kind()))
	}

	rule, ok := a.table[action][actor.Role()]
	if !ok {
		return errs.NewForbiddenError(actorID, string(action),
			fmt.Sprintf("role %s not permitted", actor.Role()))
	}

	if !a.satisfies(actor, subject, rule.Relation) {
		return errs.NewForbiddenError(actorID, string(action),
			fmt.Sprintf("actor is not the %s", rule.Relation))
	}

	if rule.MustBeAvailable && !actor.IsAvailable() {
		return errs.NewForbiddenError(actorID, string(action), "actor is not available")
	}

	return nil
}

func (a *Authorizer) satisfies(actor *participant.Participant, subject Subject, rel Relation) bool {
	id := actor.ID()
	switch rel {
	case RelationAny:
		return true
	case RelationMember:
		return actor.IsAdministrator() || subject.IsMember(id)
	case RelationCustomer:
		return subject.IsCustomer(id)
	case RelationAssignee:
		return subject.IsAssignee(id)
	case RelationMerchant:
		return subject.IsMerchant(id)
	default:
		return false
	}
}

func (act Action) entityKind() (message.RoomKind, bool) {
	prefix, _, ok := strings.Cut(string(act), ".")
	if !ok {
		return "", false
	}
	switch prefix {
	case order.AggregateName:
		return message.OrderRoom, true
	case trip.AggregateName:
		return message.TripRoom, true
	default:
		return message.RoomKind(prefix), true
	}
}
