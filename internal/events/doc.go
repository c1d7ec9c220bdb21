// Package events carries task lifecycle notifications from the service layer
// to interested components such as metrics, without the service knowing who
// listens. Delivery is synchronous and in-process.
package events
