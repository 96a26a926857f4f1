package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRepeatModeIsValid verifies the closed set of repeat modes.
func TestRepeatModeIsValid(t *testing.T) {
	t.Parallel()

	require.True(t, RepeatNone.IsValid())
	require.True(t, RepeatDaily.IsValid())
	require.False(t, RepeatMode("weekly").IsValid())
	require.False(t, RepeatMode("").IsValid())
}

// TestAlarmClone verifies that Clone returns a copy and handles nil safely.
func TestAlarmClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*Alarm)(nil).Clone())

	a := &Alarm{
		ID:          7,
		Label:       "workout",
		Time:        "07:30",
		Repeat:      RepeatDaily,
		Status:      StatusActive,
		NextTrigger: time.Date(2026, time.August, 27, 7, 30, 0, 0, time.Local),
	}

	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
}
