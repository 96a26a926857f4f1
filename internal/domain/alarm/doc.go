// Package alarm contains core domain types for alarm scheduling.
//
// It defines the persisted Alarm model, the validated Request that precedes it,
// and the repeat/status enumerations, with Clone helpers to avoid leaking
// internal references.
package alarm
