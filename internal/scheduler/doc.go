// Package scheduler owns alarm lifecycle semantics: when an alarm first
// triggers, which alarms are due at a given instant, and how daily alarms
// re-arm after firing. It validates defensively at the boundary and treats
// unresolved values reaching it as invariant violations.
package scheduler
