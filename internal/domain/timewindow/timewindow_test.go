package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"00:01", 1},
		{"09:30", 570},
		{"12:00", 720},
		{"23:59", 1439},
	}
	for _, tc := range tests {
		got, err := ToMinutes(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestToMinutes_Invalid(t *testing.T) {
	for _, in := range []string{"", "12", "12:0:0", "24:00", "12:60", "-1:30", "ab:cd", "12:3x"} {
		_, err := ToMinutes(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}

func TestInRange_InclusiveBounds(t *testing.T) {
	tests := []struct {
		current string
		want    bool
	}{
		{"08:59", false},
		{"09:00", true},
		{"12:30", true},
		{"17:00", true},
		{"17:01", false},
	}
	for _, tc := range tests {
		got, err := InRange(tc.current, "09:00", "17:00")
		require.NoError(t, err, tc.current)
		assert.Equal(t, tc.want, got, tc.current)
	}
}

func TestInRange_EndBeforeStartNeverMatches(t *testing.T) {
	// A window like 22:00-02:00 is interpreted on one day, not wrapped.
	for _, current := range []string{"23:00", "01:00", "12:00"} {
		got, err := InRange(current, "22:00", "02:00")
		require.NoError(t, err, current)
		assert.False(t, got, current)
	}
}

func TestInRange_InvalidArgument(t *testing.T) {
	_, err := InRange("aa:bb", "09:00", "17:00")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = InRange("12:00", "bad", "17:00")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = InRange("12:00", "09:00", "bad")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func clockTime(hour, minute int) time.Time {
	return time.Date(2026, time.March, 14, hour, minute, 0, 0, time.UTC)
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		end       string
		wantHours int
		wantMins  int
	}{
		{"same afternoon", clockTime(13, 0), "14:00", 1, 0},
		{"partial hour", clockTime(13, 45), "17:30", 3, 45},
		{"under an hour", clockTime(16, 50), "17:30", 0, 40},
		{"rolls to next day", clockTime(23, 50), "00:10", 0, 20},
		{"exactly at end rolls a full day", clockTime(17, 0), "17:00", 24, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := Remaining(tc.now, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.wantHours, h)
			assert.Equal(t, tc.wantMins, m)
		})
	}
}

func TestRemaining_InvalidEnd(t *testing.T) {
	_, _, err := Remaining(clockTime(12, 0), "25:00")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestClock(t *testing.T) {
	assert.Equal(t, "00:05", Clock(clockTime(0, 5)))
	assert.Equal(t, "09:30", Clock(clockTime(9, 30)))
	assert.Equal(t, "23:59", Clock(clockTime(23, 59)))
}

func TestFormat12Hour(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:00", "12:00 AM"},
		{"00:30", "12:30 AM"},
		{"01:05", "1:05 AM"},
		{"11:59", "11:59 AM"},
		{"12:00", "12:00 PM"},
		{"12:30", "12:30 PM"},
		{"13:00", "1:00 PM"},
		{"23:59", "11:59 PM"},
	}
	for _, tc := range tests {
		got, err := Format12Hour(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestFormat12Hour_Invalid(t *testing.T) {
	_, err := Format12Hour("noon")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
