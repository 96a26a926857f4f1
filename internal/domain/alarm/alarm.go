package alarm

import "time"

// RepeatMode describes how often an alarm fires.
type RepeatMode string

const (
	// RepeatNone marks a one-shot alarm that becomes inert after firing.
	RepeatNone RepeatMode = "none"
	// RepeatDaily marks an alarm that becomes eligible again every day.
	RepeatDaily RepeatMode = "daily"
)

// IsValid reports whether the repeat mode is one of the known values.
func (m RepeatMode) IsValid() bool {
	return m == RepeatNone || m == RepeatDaily
}

// Status describes the lifecycle state of a persisted alarm.
type Status string

const (
	// StatusActive marks an alarm that is armed and eligible to fire.
	StatusActive Status = "active"
	// StatusTriggered marks a one-shot alarm that has already fired.
	StatusTriggered Status = "triggered"
)

const (
	// DefaultLabel is used when the user never names the alarm.
	DefaultLabel = "Alarm"

	// TimeLayout is the canonical 24-hour representation of alarm times.
	TimeLayout = "15:04"

	// DateLayout is the canonical representation of alarm dates.
	DateLayout = "2006-01-02"
)

// Request is a fully validated alarm request emitted by the dialogue layer.
// Time is always canonical 24-hour "15:04". Date is canonical "2006-01-02" or
// empty when the user never supplied one; an empty date means the alarm is
// scheduled for the next occurrence of Time (today, or tomorrow when today's
// instant has already passed).
type Request struct {
	// Label names the alarm. Empty falls back to DefaultLabel.
	Label string `json:"label"`
	// Time is the canonical time of day the alarm fires.
	Time string `json:"time"`
	// Date is the canonical date the alarm fires, or empty for "next occurrence".
	Date string `json:"date,omitempty"`
	// Repeat selects one-shot or daily firing.
	Repeat RepeatMode `json:"repeat"`
}

// Alarm is a persisted alarm record.
type Alarm struct {
	// ID is the unique identifier assigned at creation.
	ID int64 `json:"id"`
	// Label is the user-facing alarm name.
	Label string `json:"label"`
	// Time is the canonical 24-hour time of day.
	Time string `json:"time"`
	// Date is the canonical date, or empty when scheduling was relative.
	Date string `json:"date,omitempty"`
	// Repeat selects one-shot or daily firing.
	Repeat RepeatMode `json:"repeat"`
	// Status tracks whether the alarm is armed or already fired.
	Status Status `json:"status"`
	// NextTrigger is the next instant the alarm is due.
	NextTrigger time.Time `json:"next_trigger"`
	// CreatedAt is when the alarm was stored.
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy of the alarm to avoid leaking internal references.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}
