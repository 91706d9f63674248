// Package ports declares the contracts between the core and its adapters:
// the persistence port (repositories behind a unit of work), the room
// publisher used for system frames and the integration event publisher.
package ports
