// Package domain holds the task API's entities and value types: tasks,
// tags, users, the priority and status enumerations, and the tri-state
// input used for create, replace and partial update.
//
// Field-level failures are reported as *FieldError or *ValidationErrors,
// both of which unwrap to the sentinel errors in errors.go.
package domain
