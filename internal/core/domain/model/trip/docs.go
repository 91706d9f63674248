// Package trip holds the Trip aggregate of the ride service and its
// transition table. A trip is requested by a customer, accepted by an
// available driver with an approved vehicle, then driven to pickup, started
// and completed by that driver.
package trip
