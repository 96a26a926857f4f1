// Package alarms persists alarms in SQLite. The repository is a thin data
// mapper: scheduling decisions (what is due, how triggers advance) belong to
// the scheduler, which drives this package through the Repository interface.
package alarms
