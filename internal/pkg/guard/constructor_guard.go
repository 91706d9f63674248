package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate on a zero-value guard
// when the caller passes no error of its own.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks a value as built by its constructor. Commands,
// queries and aggregates embed one and call Validate from their own
// Validate method, so a zero-value struct literal is rejected.
//
// Example:
//
//	var errRoomRefNotConstructed = errors.New("RoomRef must be created via NewRoomRef")
//
//	type RoomRef struct {
//	    kind  Kind
//	    id    string
//	    guard guard.ConstructorGuard
//	}
//
//	func (r RoomRef) Validate() error {
//	    return r.guard.Validate(errRoomRefNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard that passes validation.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is
// nil) if the guard is a zero value, and nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
