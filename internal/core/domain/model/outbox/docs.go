// Package outbox holds integration events produced by status transitions.
package outbox
