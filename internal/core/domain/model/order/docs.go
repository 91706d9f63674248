// Package order holds the Order aggregate of the delivery service and its
// transition table.
//
// An order is created pending by the storefront, accepted by an available
// courier, prepared by its merchant, then carried and delivered by the same
// courier. The customer may cancel it until it is ready. Every status change
// goes through Order.Apply, which consults Transitions; nothing else in the
// module writes an order status.
package order
