package calendar_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bybuy30/leave-tracker/calendar"
)

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := calendar.ParseDate("2024-06-07")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-07", d.String())
	assert.Equal(t, time.Friday, d.Weekday())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "2024-13-01", "07/06/2024", "not a date"} {
		_, err := calendar.ParseDate(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}
}

func TestIsWeekend(t *testing.T) {
	saturday := calendar.NewDate(2024, time.June, 8)
	sunday := calendar.NewDate(2024, time.June, 9)
	monday := calendar.NewDate(2024, time.June, 10)

	assert.True(t, saturday.IsWeekend())
	assert.True(t, sunday.IsWeekend())
	assert.False(t, monday.IsWeekend())
}

func TestWorkingDaySpan_SkipsWeekend(t *testing.T) {
	// GIVEN: a span starting Friday 2024-06-07 for 3 working days
	// THEN: Saturday and Sunday are skipped
	span := calendar.WorkingDaySpan(calendar.MustParseDate("2024-06-07"), 3)

	require.Len(t, span, 3)
	assert.Equal(t, "2024-06-07", span[0].String())
	assert.Equal(t, "2024-06-10", span[1].String())
	assert.Equal(t, "2024-06-11", span[2].String())
}

func TestWorkingDaySpan_WeekendStartAdvancesToMonday(t *testing.T) {
	// Span generation advances a weekend start to Monday. Rejecting
	// weekend start dates outright is the engine's job, not this one's.
	saturday := calendar.MustParseDate("2024-06-08")
	span := calendar.WorkingDaySpan(saturday, 2)

	require.Len(t, span, 2)
	assert.Equal(t, "2024-06-10", span[0].String())
	assert.Equal(t, "2024-06-11", span[1].String())
}

func TestWorkingDaySpan_Deterministic(t *testing.T) {
	start := calendar.MustParseDate("2024-06-05")
	first := calendar.WorkingDaySpan(start, 10)
	second := calendar.WorkingDaySpan(start, 10)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].Before(first[i]), "span must be strictly increasing")
		assert.False(t, first[i].IsWeekend(), "span must not contain weekends")
	}
}

func TestWorkingDaySpan_DegenerateCount(t *testing.T) {
	assert.Nil(t, calendar.WorkingDaySpan(calendar.MustParseDate("2024-06-07"), 0))
	assert.Nil(t, calendar.WorkingDaySpan(calendar.Date{}, 3))
}

func TestDate_JSONMapKey(t *testing.T) {
	// Heatmaps are keyed by Date; the text marshaler must survive a
	// document round trip.
	in := map[calendar.Date]int{calendar.MustParseDate("2024-06-07"): 2}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-06-07": 2}`, string(raw))

	var out map[calendar.Date]int
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}
