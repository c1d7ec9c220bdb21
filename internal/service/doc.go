// Package service holds the task API's use cases. Services validate client
// input against domain rules, run each mutation in one database transaction
// through the store interfaces, and announce committed task changes on an
// events.EventEmitter.
//
// Client errors are returned as domain errors (*domain.FieldError,
// *domain.ValidationErrors) so the HTTP layer can map them with errors.Is.
// Absence is reported as a nil result, never as an error.
package service
