package alarms

import (
	"context"
	"time"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
)

// Repository stores alarms.
type Repository interface {
	// Add persists a new alarm and fills in its assigned identifier.
	Add(ctx context.Context, a *alarm.Alarm) error
	// List returns all alarms, newest first.
	List(ctx context.Context) ([]*alarm.Alarm, error)
	// GetByID returns the alarm with the given identifier, or nil.
	GetByID(ctx context.Context, id int64) (*alarm.Alarm, error)
	// Update overwrites the stored alarm and reports whether it existed.
	Update(ctx context.Context, a *alarm.Alarm) (bool, error)
	// DeleteByID removes the alarm and reports whether it existed.
	DeleteByID(ctx context.Context, id int64) (bool, error)
	// FindByLabel returns all alarms with the given label, newest first.
	FindByLabel(ctx context.Context, label string) ([]*alarm.Alarm, error)
	// DeleteByLabel removes all alarms with the given label and returns how
	// many were removed.
	DeleteByLabel(ctx context.Context, label string) (int64, error)
	// DueBefore returns active alarms whose next trigger is at or before the
	// given instant, soonest first.
	DueBefore(ctx context.Context, now time.Time) ([]*alarm.Alarm, error)
	// SetNextTrigger moves an alarm's next trigger instant.
	SetNextTrigger(ctx context.Context, id int64, next time.Time) error
	// MarkTriggered retires a one-shot alarm after it fires.
	MarkTriggered(ctx context.Context, id int64) error
	// Close releases the underlying storage.
	Close() error
}
