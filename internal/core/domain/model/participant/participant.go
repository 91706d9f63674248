package participant

import (
	"errors"
	"fmt"
	"strings"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

var ErrParticipantIsNotConstructed = errors.New("Participant must be created via NewParticipant constructor")

// Role decides which actions a participant may request.
type Role string

const (
	Customer      Role = "customer"
	Courier       Role = "courier"
	Driver        Role = "driver"
	Merchant      Role = "merchant"
	Administrator Role = "administrator"
)

func ParseRole(s string) (Role, error) {
	r := Role(s)
	return r, r.Validate()
}

func (r Role) Validate() error {
	switch r {
	case Customer, Courier, Driver, Merchant, Administrator:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a role", string(r)))
	}
}

// TracksAvailability reports whether the availability flag means anything
// for the role.
func (r Role) TracksAvailability() bool {
	return r == Courier || r == Driver
}

// Participant is an account known to the realtime core. Accounts are owned
// by user management; the core only reads them, apart from the availability
// flag that couriers and drivers toggle themselves.
type Participant struct {
	id        kernel.UUID
	username  string
	role      Role
	available bool

	isConstructed bool
}

// NewParticipant builds a participant. available is forced to false for
// roles that do not track availability.
func NewParticipant(id kernel.UUID, username string, role Role, available bool) (*Participant, error) {
	p := &Participant{
		role:          role,
		available:     available && role.TracksAvailability(),
		isConstructed: true,
	}

	if err := errors.Join(
		p.setID(id),
		p.setUsername(username),
		role.Validate(),
	); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Participant) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrParticipantIsNotConstructed
	}
	return nil
}

func (p *Participant) ID() kernel.UUID {
	return p.id
}

func (p *Participant) Username() string {
	return p.username
}

func (p *Participant) Role() Role {
	return p.role
}

func (p *Participant) IsAvailable() bool {
	return p.available
}

func (p *Participant) IsAdministrator() bool {
	return p.role == Administrator
}

// SetAvailability toggles the availability flag of a courier or driver.
func (p *Participant) SetAvailability(available bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.role.TracksAvailability() {
		return errs.NewValueIsInvalidErrorWithCause("availability",
			fmt.Errorf("role %s does not track availability", p.role))
	}
	p.available = available
	return nil
}

func (p *Participant) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Participant) setUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errs.NewValueIsRequiredError("username")
	}
	if len(username) > 150 {
		return errs.NewValueIsOutOfRangeError("username length", len(username), 1, 150)
	}
	p.username = username
	return nil
}
