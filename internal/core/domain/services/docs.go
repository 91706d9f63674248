// Package services provides the domain services shared by the realtime
// gateway, the message pipeline and the state machine.
//
// The package includes:
//   - Authorizer: the single permission table keyed by action and role
//   - Subject: the snapshot of a room's parties an authorization runs against
//
// Role checks never live in handlers; every caller builds a Subject from
// fresh storage reads and asks the Authorizer.
package services
