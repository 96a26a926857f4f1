// Package config defines runtime settings used by the assistant binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the HTTP listen address, the SQLite database path and
// the due-alarm polling cadence.
package config
