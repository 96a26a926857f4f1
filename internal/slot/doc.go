// Package slot validates raw extracted entity values for each dialogue slot
// (time, date, label, repeat) and canonicalizes them.
//
// Validators are pure: they receive the raw value and the current instant and
// return either a canonical value or an *Invalid describing the failure. The
// dialogue layer treats Invalid as a normal transition outcome, never as an
// exceptional one.
package slot
