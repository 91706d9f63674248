// Package kernel holds the value objects shared by every aggregate of the
// ride and delivery core:
//   - UUID: identifier of participants, orders, trips, vehicles and messages
//   - GeoPoint: a validated latitude/longitude pair used for trip endpoints
//
// Both are immutable and their zero values fail Validate, so a value that
// reaches an aggregate was always built by one of the package constructors.
package kernel
