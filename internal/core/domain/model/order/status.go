package order

import (
	"fmt"

	"superservice/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
//	Pending ──accept──> Preparing ──mark_ready──> Ready ──start_delivery──> EnRoute ──deliver──> Delivered
//	   │                    │
//	   └──────cancel────────┴──> Cancelled
//
// Delivered and Cancelled are terminal.
type Status int

const (
	// Unknown is the zero value and never valid.
	Unknown Status = iota
	Pending
	Preparing
	Ready
	EnRoute
	Delivered
	Cancelled
)

var statusNames = map[Status]string{
	Pending:   "pending",
	Preparing: "preparing",
	Ready:     "ready",
	EnRoute:   "en_route",
	Delivered: "delivered",
	Cancelled: "cancelled",
}

// ParseStatus maps the persisted name back to a Status.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not an order status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the persisted, wire-level name ("unknown" for invalid values).
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further event can be applied.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// ValidateCanHaveCourier checks the pairing of status and courier assignment
// when an order is restored from storage: only pending and cancelled orders
// may lack a courier, and a pending order never has one.
func (s Status) ValidateCanHaveCourier(courier bool) error {
	if courier && s == Pending {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have a courier", s),
		)
	}
	if !courier && s != Pending && s != Cancelled {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have no courier", s),
		)
	}
	return nil
}
