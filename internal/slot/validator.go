package slot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
)

// Type identifies a dialogue slot.
type Type string

const (
	// TypeTime is the time-of-day slot.
	TypeTime Type = "time"
	// TypeDate is the calendar date slot.
	TypeDate Type = "date"
	// TypeLabel is the alarm name slot.
	TypeLabel Type = "label"
	// TypeRepeat is the repeat mode slot.
	TypeRepeat Type = "repeat"
)

// Invalid describes a slot validation failure.
// The reason is phrased for the user and surfaced as a clarification prompt.
type Invalid struct {
	// Slot is the slot the value was destined for.
	Slot Type
	// Reason is a human-readable explanation of the failure.
	Reason string
}

// Error implements the error interface.
func (e *Invalid) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Slot, e.Reason)
}

// ValidatorFunc validates a raw entity value against the current instant and
// returns the canonical value.
type ValidatorFunc func(raw string, now time.Time) (string, error)

// Table returns the validator dispatch table keyed by slot type.
func Table() map[Type]ValidatorFunc {
	return map[Type]ValidatorFunc{
		TypeTime:   ValidateTime,
		TypeDate:   ValidateDate,
		TypeLabel:  ValidateLabel,
		TypeRepeat: ValidateRepeat,
	}
}

// Validate dispatches the raw value to the validator for the given slot type.
func Validate(t Type, raw string, now time.Time) (string, error) {
	validator, ok := Table()[t]
	if !ok {
		return "", &Invalid{Slot: t, Reason: "unknown slot"}
	}

	return validator(raw, now)
}

var (
	// clockTimePattern matches "7:30", "07:30", "7:30 am" and similar.
	clockTimePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)?$`)
	// hourOnlyPattern matches "7 am", "12pm" and similar.
	hourOnlyPattern = regexp.MustCompile(`^(\d{1,2})\s*(am|pm)$`)
)

// namedTimes maps colloquial times of day to canonical 24-hour values.
var namedTimes = map[string]string{
	"noon":      "12:00",
	"midday":    "12:00",
	"midnight":  "00:00",
	"morning":   "08:00",
	"afternoon": "14:00",
	"evening":   "18:00",
	"night":     "22:00",
}

// ValidateTime canonicalizes 12-hour and 24-hour time strings to "15:04".
// Ambiguous or out-of-range values ("13 PM", "25:00") are Invalid.
func ValidateTime(raw string, _ time.Time) (string, error) {
	ts := strings.ToLower(strings.TrimSpace(raw))
	if ts == "" {
		return "", &Invalid{Slot: TypeTime, Reason: "no time was given"}
	}

	if canonical, ok := namedTimes[ts]; ok {
		return canonical, nil
	}

	var (
		hour, minute int
		meridiem     string
	)

	switch {
	case clockTimePattern.MatchString(ts):
		groups := clockTimePattern.FindStringSubmatch(ts)
		hour, _ = strconv.Atoi(groups[1])
		minute, _ = strconv.Atoi(groups[2])
		meridiem = groups[3]
	case hourOnlyPattern.MatchString(ts):
		groups := hourOnlyPattern.FindStringSubmatch(ts)
		hour, _ = strconv.Atoi(groups[1])
		meridiem = groups[2]
	default:
		return "", &Invalid{
			Slot:   TypeTime,
			Reason: fmt.Sprintf("%q is not a time I understand, try something like '7:30 AM' or '14:30'", raw),
		}
	}

	if minute > 59 {
		return "", &Invalid{Slot: TypeTime, Reason: fmt.Sprintf("there is no minute %d", minute)}
	}

	if meridiem != "" {
		// 12-hour clock: the hour must be 1..12 ("13 PM" is nonsense).
		if hour < 1 || hour > 12 {
			return "", &Invalid{
				Slot:   TypeTime,
				Reason: fmt.Sprintf("%q mixes 24-hour and AM/PM forms", raw),
			}
		}

		if meridiem == "pm" && hour < 12 {
			hour += 12
		}

		if meridiem == "am" && hour == 12 {
			hour = 0
		}
	} else if hour > 23 {
		return "", &Invalid{Slot: TypeTime, Reason: fmt.Sprintf("there is no hour %d on a 24-hour clock", hour)}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// weekdays maps lowercase weekday names to time.Weekday.
var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// explicitDateLayouts are tried in order for explicit calendar dates.
var explicitDateLayouts = []string{
	alarm.DateLayout,
	"01/02/2006",
	"02/01/2006",
}

// ValidateDate canonicalizes relative terms ("today", "tomorrow", weekday
// names) and explicit calendar dates to "2006-01-02". Dates that do not exist
// on the calendar are Invalid.
func ValidateDate(raw string, now time.Time) (string, error) {
	ds := strings.ToLower(strings.TrimSpace(raw))

	switch ds {
	case "":
		return "", &Invalid{Slot: TypeDate, Reason: "no date was given"}
	case "today":
		return now.Format(alarm.DateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(alarm.DateLayout), nil
	}

	// A weekday name means the next occurrence of that weekday, never today.
	if weekday, ok := weekdays[ds]; ok {
		daysAhead := (int(weekday) - int(now.Weekday()) + 7) % 7
		if daysAhead == 0 {
			daysAhead = 7
		}

		return now.AddDate(0, 0, daysAhead).Format(alarm.DateLayout), nil
	}

	for _, layout := range explicitDateLayouts {
		parsed, err := time.Parse(layout, ds)
		if err != nil {
			continue
		}

		return parsed.Format(alarm.DateLayout), nil
	}

	return "", &Invalid{
		Slot:   TypeDate,
		Reason: fmt.Sprintf("%q is not a date I understand, try 'today', 'tomorrow', a weekday or '2026-12-25'", raw),
	}
}

// labelFillerWords are dropped from labels before storing them.
var labelFillerWords = map[string]struct{}{
	"the":    {},
	"a":      {},
	"an":     {},
	"my":     {},
	"this":   {},
	"called": {},
	"named":  {},
	"alarm":  {},
}

// labelWordLimit caps how many words a label keeps.
const labelWordLimit = 3

// nonWordPattern strips punctuation when checking filler words.
var nonWordPattern = regexp.MustCompile(`[^\w]`)

// ValidateLabel trims the label and strips filler words. The label slot is
// optional and never blocks completion: an empty result falls back to the
// default label instead of failing.
func ValidateLabel(raw string, _ time.Time) (string, error) {
	var words []string

	for _, word := range strings.Fields(strings.TrimSpace(raw)) {
		clean := nonWordPattern.ReplaceAllString(strings.ToLower(word), "")
		if clean == "" {
			continue
		}

		if _, filler := labelFillerWords[clean]; filler {
			continue
		}

		words = append(words, word)
		if len(words) == labelWordLimit {
			break
		}
	}

	if len(words) == 0 {
		return alarm.DefaultLabel, nil
	}

	return strings.Join(words, " "), nil
}

// repeatTerms maps recognized repeat phrasings to canonical modes.
var repeatTerms = map[string]alarm.RepeatMode{
	"none":      alarm.RepeatNone,
	"no":        alarm.RepeatNone,
	"never":     alarm.RepeatNone,
	"once":      alarm.RepeatNone,
	"one-time":  alarm.RepeatNone,
	"daily":     alarm.RepeatDaily,
	"every day": alarm.RepeatDaily,
	"everyday":  alarm.RepeatDaily,
	"each day":  alarm.RepeatDaily,
}

// ValidateRepeat maps repeat terms onto exactly {none, daily}.
// Unrecognized terms are Invalid.
func ValidateRepeat(raw string, _ time.Time) (string, error) {
	rs := strings.ToLower(strings.TrimSpace(raw))
	if rs == "" {
		return "", &Invalid{Slot: TypeRepeat, Reason: "no repeat mode was given"}
	}

	mode, ok := repeatTerms[rs]
	if !ok {
		return "", &Invalid{
			Slot:   TypeRepeat,
			Reason: fmt.Sprintf("%q is not a repeat mode I support, say 'daily' or 'none'", raw),
		}
	}

	return string(mode), nil
}

// ValidateSchedule rejects one-shot (date, time) pairs strictly in the past.
// The boundary is inclusive: an alarm scheduled for the current minute is
// valid. Both values must already be canonical; an empty date means "next
// occurrence" and is always schedulable.
func ValidateSchedule(date, timeOfDay string, repeat alarm.RepeatMode, now time.Time) error {
	if repeat == alarm.RepeatDaily || date == "" {
		return nil
	}

	instant, err := time.ParseInLocation(alarm.DateLayout+" "+alarm.TimeLayout, date+" "+timeOfDay, now.Location())
	if err != nil {
		return &Invalid{Slot: TypeDate, Reason: "the date and time do not form a valid schedule"}
	}

	if instant.Before(now.Truncate(time.Minute)) {
		return &Invalid{
			Slot:   TypeDate,
			Reason: fmt.Sprintf("%s %s is already in the past", date, timeOfDay),
		}
	}

	return nil
}
