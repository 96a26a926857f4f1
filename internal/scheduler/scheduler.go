package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
	"github.com/oshokin/alarm-assistant/internal/logger"
	"github.com/oshokin/alarm-assistant/internal/repository/alarms"
	"github.com/oshokin/alarm-assistant/internal/slot"
)

var (
	// ErrUnresolvedTime means a request reached the scheduler without a
	// canonical time. The dialogue layer must never let this happen.
	ErrUnresolvedTime = errors.New("alarm time is not resolved")
	// ErrUnknownRepeat means a request carried a repeat mode outside the
	// supported set.
	ErrUnknownRepeat = errors.New("unknown repeat mode")
	// ErrPastSchedule means a one-shot request targets an instant that has
	// already passed.
	ErrPastSchedule = errors.New("alarm schedule is in the past")
	// ErrNotFound means no alarm matched the given identifier or label.
	ErrNotFound = errors.New("alarm not found")
)

// Changes carries the fields an update may modify. Empty fields are left as
// they are.
type Changes struct {
	// Time is the new canonical time of day.
	Time string
	// Date is the new canonical date.
	Date string
	// Repeat is the new repeat mode.
	Repeat string
}

// Scheduler computes trigger instants and answers due checks. All store
// mutations are serialized with a mutex; reads go straight through.
type Scheduler struct {
	repo alarms.Repository
	now  func() time.Time
	mu   sync.Mutex
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New returns a scheduler over the given repository.
func New(repo alarms.Repository, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Add canonicalizes the request, computes its first trigger instant and
// persists it. Requests with an unresolved time or an unknown repeat mode are
// invariant violations: they are logged, rejected and the store is untouched.
func (s *Scheduler) Add(ctx context.Context, req *alarm.Request) (*alarm.Alarm, error) {
	now := s.now()

	if err := s.validate(ctx, req, now); err != nil {
		return nil, err
	}

	label := req.Label
	if label == "" {
		label = alarm.DefaultLabel
	}

	next, err := nextTrigger(req.Time, req.Date, now)
	if err != nil {
		return nil, err
	}

	a := &alarm.Alarm{
		Label:       label,
		Time:        req.Time,
		Date:        req.Date,
		Repeat:      req.Repeat,
		Status:      alarm.StatusActive,
		NextTrigger: next,
		CreatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.repo.Add(ctx, a); err != nil {
		return nil, err
	}

	logger.Infof(ctx, "scheduled alarm %d (%s) for %s", a.ID, a.Label, a.NextTrigger.Format(time.RFC3339))

	return a, nil
}

// validate enforces scheduler invariants on an incoming request.
func (s *Scheduler) validate(ctx context.Context, req *alarm.Request, now time.Time) error {
	if _, err := time.Parse(alarm.TimeLayout, req.Time); err != nil {
		logger.Errorf(ctx, "invariant violation: request with unresolved time %q", req.Time)

		return fmt.Errorf("%w: %q", ErrUnresolvedTime, req.Time)
	}

	if !req.Repeat.IsValid() {
		logger.Errorf(ctx, "invariant violation: request with unknown repeat mode %q", req.Repeat)

		return fmt.Errorf("%w: %q", ErrUnknownRepeat, req.Repeat)
	}

	if err := slot.ValidateSchedule(req.Date, req.Time, req.Repeat, now); err != nil {
		return fmt.Errorf("%w: %s %s", ErrPastSchedule, req.Date, req.Time)
	}

	return nil
}

// nextTrigger resolves the first trigger instant, seconds truncated. With no
// explicit date the alarm targets today, rolled to tomorrow when today's
// instant has already passed; an alarm for the current minute fires this
// cycle.
func nextTrigger(timeOfDay, date string, now time.Time) (time.Time, error) {
	clock, err := time.Parse(alarm.TimeLayout, timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnresolvedTime, timeOfDay)
	}

	if date != "" {
		day, err := time.ParseInLocation(alarm.DateLayout, date, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("unresolved date %q: %w", date, err)
		}

		return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location()), nil
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if candidate.Before(now.Truncate(time.Minute)) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return candidate, nil
}

// CheckDue returns the alarms firing now. A single clock snapshot covers the
// whole call, and the post-fire bookkeeping makes the check idempotent: an
// immediately repeated call returns nothing new. One-shot alarms are retired;
// daily alarms advance by whole days until their trigger is strictly in the
// future.
func (s *Scheduler) CheckDue(ctx context.Context) ([]*alarm.Alarm, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	due, err := s.repo.DueBefore(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, a := range due {
		if a.Repeat == alarm.RepeatDaily {
			next := a.NextTrigger
			for !next.After(now) {
				next = next.AddDate(0, 0, 1)
			}

			if err = s.repo.SetNextTrigger(ctx, a.ID, next); err != nil {
				return nil, err
			}

			logger.Infof(ctx, "alarm %d (%s) fired, next trigger %s", a.ID, a.Label, next.Format(time.RFC3339))

			continue
		}

		if err = s.repo.MarkTriggered(ctx, a.ID); err != nil {
			return nil, err
		}

		logger.Infof(ctx, "alarm %d (%s) fired", a.ID, a.Label)
	}

	return due, nil
}

// List returns all stored alarms.
func (s *Scheduler) List(ctx context.Context) ([]*alarm.Alarm, error) {
	return s.repo.List(ctx)
}

// Get returns one alarm by identifier.
func (s *Scheduler) Get(ctx context.Context, id int64) (*alarm.Alarm, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if a == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	return a, nil
}

// UpdateByID applies changes to one alarm, recomputes its trigger and
// reactivates it.
func (s *Scheduler) UpdateByID(ctx context.Context, id int64, changes Changes) (*alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if a == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if err = s.apply(ctx, a, changes); err != nil {
		return nil, err
	}

	return a, nil
}

// DeleteByID removes one alarm by identifier.
func (s *Scheduler) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	return nil
}

// CancelByLabel removes every alarm with the given label and returns how many
// were removed.
func (s *Scheduler) CancelByLabel(ctx context.Context, label string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.repo.DeleteByLabel(ctx, label)
	if err != nil {
		return 0, err
	}

	if deleted == 0 {
		return 0, fmt.Errorf("%w: label %q", ErrNotFound, label)
	}

	logger.Infof(ctx, "cancelled %d alarm(s) labelled %q", deleted, label)

	return deleted, nil
}

// UpdateByLabel applies changes to every alarm with the given label,
// recomputing triggers and reactivating each one.
func (s *Scheduler) UpdateByLabel(ctx context.Context, label string, changes Changes) ([]*alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.repo.FindByLabel(ctx, label)
	if err != nil {
		return nil, err
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: label %q", ErrNotFound, label)
	}

	for _, a := range found {
		if err = s.apply(ctx, a, changes); err != nil {
			return nil, err
		}
	}

	return found, nil
}

// apply merges changes into the alarm, recomputes the next trigger and stores
// the result. Updated alarms always return to the active state.
func (s *Scheduler) apply(ctx context.Context, a *alarm.Alarm, changes Changes) error {
	if changes.Time != "" {
		if _, err := time.Parse(alarm.TimeLayout, changes.Time); err != nil {
			return fmt.Errorf("%w: %q", ErrUnresolvedTime, changes.Time)
		}

		a.Time = changes.Time
	}

	if changes.Date != "" {
		a.Date = changes.Date
	}

	if changes.Repeat != "" {
		mode := alarm.RepeatMode(changes.Repeat)
		if !mode.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownRepeat, changes.Repeat)
		}

		a.Repeat = mode
	}

	next, err := nextTrigger(a.Time, a.Date, s.now())
	if err != nil {
		return err
	}

	a.NextTrigger = next
	a.Status = alarm.StatusActive

	ok, err := s.repo.Update(ctx, a)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, a.ID)
	}

	logger.Infof(ctx, "updated alarm %d (%s), next trigger %s", a.ID, a.Label, next.Format(time.RFC3339))

	return nil
}
