// Package participant models the accounts that take part in rooms and
// transitions: customers, couriers, drivers, merchants and administrators.
package participant
