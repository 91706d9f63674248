package trip

import (
	"fmt"

	"superservice/internal/pkg/errs"
)

// Status is the lifecycle state of a trip.
//
//	Requested ──accept──> Accepted ──start_pickup──> EnRouteToPickup ──start_trip──> InProgress ──complete──> Completed
//	    │                    │
//	    └───────cancel───────┴──> Cancelled
type Status int

const (
	Unknown Status = iota
	Requested
	Accepted
	EnRouteToPickup
	InProgress
	Completed
	Cancelled
)

var statusNames = map[Status]string{
	Requested:       "requested",
	Accepted:        "accepted",
	EnRouteToPickup: "en_route_to_pickup",
	InProgress:      "in_progress",
	Completed:       "completed",
	Cancelled:       "cancelled",
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a trip status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// ValidateCanHaveDriver mirrors order.Status.ValidateCanHaveCourier for the
// driver assignment.
func (s Status) ValidateCanHaveDriver(driver bool) error {
	if driver && s == Requested {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%s is not a valid status to have a driver", s))
	}
	if !driver && s != Requested && s != Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%s is not a valid status to have no driver", s))
	}
	return nil
}
