// Package errs provides the error taxonomy shared by every layer of the
// service. Each kind follows the same shape:
//   - a sentinel error variable (e.g. ErrObjectNotFound)
//   - a struct type with the details of the failure
//   - constructors with and without a cause
//   - Error() for formatting and Unwrap() returning the sentinel
//
// Kinds:
//   - ObjectNotFoundError: referenced entity or room is absent
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError:
//     malformed input (the validation family)
//   - UnauthenticatedError: no valid identity
//   - ForbiddenError: identity lacks the capability for the action
//   - StateConflictError: transition attempted from a disallowed status
//   - PersistenceError: the store could not complete the operation
//
// Callers classify with errors.Is against the sentinels, or with Kind.
package errs
