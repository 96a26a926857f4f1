package slot

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
)

// testNow is a fixed Wednesday used by date-sensitive cases.
var testNow = time.Date(2026, time.August, 26, 12, 0, 0, 0, time.Local)

// TestValidateTimeCanonicalization verifies that every spelling of the same
// instant produces the identical canonical value.
func TestValidateTimeCanonicalization(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"7:30 AM":  "07:30",
		"7:30am":   "07:30",
		"07:30":    "07:30",
		"7 AM":     "07:00",
		"07:00":    "07:00",
		"12 PM":    "12:00",
		"noon":     "12:00",
		"12 AM":    "00:00",
		"midnight": "00:00",
		"00:00":    "00:00",
		"2:15 pm":  "14:15",
		"14:15":    "14:15",
		"23:59":    "23:59",
		"evening":  "18:00",
	}

	for raw, want := range cases {
		got, err := ValidateTime(raw, testNow)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}
}

// TestValidateTimeRejectsAmbiguous verifies out-of-range and mixed forms fail.
func TestValidateTimeRejectsAmbiguous(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"13 PM", "25:00", "7:60", "0 AM", "half past nine", ""} {
		_, err := ValidateTime(raw, testNow)
		require.Error(t, err, raw)

		var invalid *Invalid
		require.ErrorAs(t, err, &invalid, raw)
		require.Equal(t, TypeTime, invalid.Slot, raw)
	}
}

// TestValidateDate covers relative terms, weekdays and explicit dates.
func TestValidateDate(t *testing.T) {
	t.Parallel()

	got, err := ValidateDate("today", testNow)
	require.NoError(t, err)
	require.Equal(t, "2026-08-26", got)

	got, err = ValidateDate("Tomorrow", testNow)
	require.NoError(t, err)
	require.Equal(t, "2026-08-27", got)

	// testNow is a Wednesday: "friday" is two days out, "wednesday" a full week.
	got, err = ValidateDate("friday", testNow)
	require.NoError(t, err)
	require.Equal(t, "2026-08-28", got)

	got, err = ValidateDate("wednesday", testNow)
	require.NoError(t, err)
	require.Equal(t, "2026-09-02", got)

	got, err = ValidateDate("2026-12-25", testNow)
	require.NoError(t, err)
	require.Equal(t, "2026-12-25", got)

	got, err = ValidateDate("12/25/2026", testNow)
	require.NoError(t, err)
	require.Equal(t, "2026-12-25", got)
}

// TestValidateDateRejectsImpossible verifies nonexistent calendar dates fail.
func TestValidateDateRejectsImpossible(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2026-02-30", "2026-13-01", "someday", ""} {
		_, err := ValidateDate(raw, testNow)
		require.Error(t, err, raw)
	}
}

// TestValidateLabel verifies trimming, filler stripping and the default fallback.
func TestValidateLabel(t *testing.T) {
	t.Parallel()

	got, err := ValidateLabel("  workout  ", testNow)
	require.NoError(t, err)
	require.Equal(t, "workout", got)

	got, err = ValidateLabel("the alarm called morning run", testNow)
	require.NoError(t, err)
	require.Equal(t, "morning run", got)

	// Label never blocks: empty input falls back to the default.
	got, err = ValidateLabel("   ", testNow)
	require.NoError(t, err)
	require.Equal(t, alarm.DefaultLabel, got)

	got, err = ValidateLabel("the my alarm", testNow)
	require.NoError(t, err)
	require.Equal(t, alarm.DefaultLabel, got)
}

// TestValidateRepeat verifies the closed {none, daily} mapping.
func TestValidateRepeat(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"daily", "every day", "Everyday"} {
		got, err := ValidateRepeat(raw, testNow)
		require.NoError(t, err, raw)
		require.Equal(t, string(alarm.RepeatDaily), got, raw)
	}

	for _, raw := range []string{"none", "once", "no"} {
		got, err := ValidateRepeat(raw, testNow)
		require.NoError(t, err, raw)
		require.Equal(t, string(alarm.RepeatNone), got, raw)
	}

	for _, raw := range []string{"weekly", "monthly", "every monday", ""} {
		_, err := ValidateRepeat(raw, testNow)
		require.Error(t, err, raw)
	}
}

// TestValidateSchedule verifies the past/future boundary for one-shot alarms.
func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	// Strictly past fails.
	err := ValidateSchedule("2026-08-26", "11:59", alarm.RepeatNone, testNow)
	require.Error(t, err)

	// The exact current minute succeeds (inclusive boundary).
	err = ValidateSchedule("2026-08-26", "12:00", alarm.RepeatNone, testNow)
	require.NoError(t, err)

	// Future succeeds.
	err = ValidateSchedule("2026-08-26", "12:01", alarm.RepeatNone, testNow)
	require.NoError(t, err)

	// Daily alarms are never past-due at creation.
	err = ValidateSchedule("2026-08-26", "11:59", alarm.RepeatDaily, testNow)
	require.NoError(t, err)

	// An unscheduled date means "next occurrence" and is always valid.
	err = ValidateSchedule("", "11:59", alarm.RepeatNone, testNow)
	require.NoError(t, err)
}

// TestValidateDispatch verifies the validator table routes by slot type.
func TestValidateDispatch(t *testing.T) {
	t.Parallel()

	got, err := Validate(TypeTime, "9 pm", testNow)
	require.NoError(t, err)
	require.Equal(t, "21:00", got)

	_, err = Validate(Type("volume"), "loud", testNow)
	require.Error(t, err)

	var invalid *Invalid
	require.True(t, errors.As(err, &invalid))
}
