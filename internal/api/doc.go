// Package api holds the HTTP handlers for registration, login and task
// CRUD. Handlers decode requests, call the service layer, and map errors
// to status codes through MapErrorToStatusCode and GetSafeErrorMessage.
// Route wiring lives in cmd/server.
package api
