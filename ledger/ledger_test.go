package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bybuy30/leave-tracker/calendar"
	"github.com/bybuy30/leave-tracker/ledger"
)

var now = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

func entry(id string, t ledger.LeaveType, start string, days int) ledger.LogEntry {
	return ledger.LogEntry{
		ID:        id,
		Type:      t,
		StartDate: calendar.MustParseDate(start),
		Duration:  days,
		Timestamp: now,
	}
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func TestParseLeaveType(t *testing.T) {
	for input, want := range map[string]ledger.LeaveType{
		"sick":   ledger.Sick,
		"casual": ledger.Casual,
		"public": ledger.Public,
		"annual": ledger.Casual, // legacy alias, never a fourth type
	} {
		got, err := ledger.ParseLeaveType(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ledger.ParseLeaveType("sabbatical")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// LEDGER LIFECYCLE
// =============================================================================

func TestNewLedger(t *testing.T) {
	l := ledger.NewLedger(ledger.DefaultQuotas(), now)

	assert.Equal(t, 35, l.TotalQuota())
	assert.Equal(t, 0, l.TotalTaken())
	assert.Equal(t, 35, l.TotalRemaining())
	assert.Equal(t, now, l.CycleStart)
	assert.Equal(t, ledger.Balance{Quota: 12}, l.Balances[ledger.Sick])
	assert.Equal(t, ledger.Balance{Quota: 11}, l.Balances[ledger.Public])
	assert.NoError(t, l.Validate())
}

func TestResetCycle_KeepsHistory(t *testing.T) {
	// GIVEN: a ledger with consumption and history
	l := ledger.NewLedger(ledger.DefaultQuotas(), now)
	l.Balances[ledger.Sick] = ledger.Balance{Quota: 12, Taken: 5}
	l.Log = append(l.Log, entry("log-1", ledger.Sick, "2024-06-03", 5))
	l.Heatmap = ledger.RebuildHeatmap(l.Log)

	// WHEN: the cycle rolls over
	later := now.AddDate(1, 0, 1)
	l.ResetCycle(ledger.DefaultQuotas(), later)

	// THEN: counters reset, history survives
	assert.Equal(t, 0, l.TotalTaken())
	assert.Equal(t, later, l.CycleStart)
	assert.Len(t, l.Log, 1, "prior log entries are retained for audit")
	assert.NoError(t, l.Validate(), "heatmap still matches the retained log")
}

func TestClone_IsDeep(t *testing.T) {
	l := ledger.NewLedger(ledger.DefaultQuotas(), now)
	l.Log = append(l.Log, entry("log-1", ledger.Casual, "2024-06-03", 2))
	l.Heatmap = ledger.RebuildHeatmap(l.Log)

	clone := l.Clone()
	clone.Balances[ledger.Sick] = ledger.Balance{Quota: 12, Taken: 12}
	clone.Log[0].Duration = 99
	clone.Heatmap.Add(calendar.MustParseDate("2024-06-04"), ledger.Sick)

	assert.Equal(t, 0, l.Balances[ledger.Sick].Taken, "clone must not alias balances")
	assert.Equal(t, 2, l.Log[0].Duration, "clone must not alias the log")
	assert.NoError(t, l.Validate(), "original heatmap untouched")
}

// =============================================================================
// HEATMAP
// =============================================================================

func TestRebuildHeatmap_PublicExcludedFromTotal(t *testing.T) {
	log := []ledger.LogEntry{
		entry("log-1", ledger.Casual, "2024-06-03", 1),
		entry("log-2", ledger.Public, "2024-06-04", 1),
	}
	h := ledger.RebuildHeatmap(log)

	monday := calendar.MustParseDate("2024-06-03")
	tuesday := calendar.MustParseDate("2024-06-04")

	assert.Equal(t, 1, h[monday].Total)
	assert.Equal(t, 1, h[monday].PerType[ledger.Casual])

	// Public holidays occupy the day per-type but not in the total.
	assert.Equal(t, 0, h[tuesday].Total)
	assert.Equal(t, 1, h[tuesday].PerType[ledger.Public])
}

func TestRebuildHeatmap_MultiDaySpansWeekend(t *testing.T) {
	// Friday + 3 days covers Fri, Mon, Tue; the weekend stays empty.
	h := ledger.RebuildHeatmap([]ledger.LogEntry{entry("log-1", ledger.Sick, "2024-06-07", 3)})

	assert.Len(t, h, 3)
	assert.Equal(t, 1, h[calendar.MustParseDate("2024-06-07")].Total)
	assert.Equal(t, 1, h[calendar.MustParseDate("2024-06-10")].Total)
	assert.Equal(t, 1, h[calendar.MustParseDate("2024-06-11")].Total)
	_, hasSaturday := h[calendar.MustParseDate("2024-06-08")]
	assert.False(t, hasSaturday)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_CatchesOverdraw(t *testing.T) {
	l := ledger.NewLedger(ledger.DefaultQuotas(), now)
	l.Balances[ledger.Sick] = ledger.Balance{Quota: 12, Taken: 13}
	assert.Error(t, l.Validate())
}

func TestValidate_CatchesOverlap(t *testing.T) {
	l := ledger.NewLedger(ledger.DefaultQuotas(), now)
	l.Log = []ledger.LogEntry{
		entry("log-1", ledger.Sick, "2024-06-03", 3),  // Mon-Wed
		entry("log-2", ledger.Casual, "2024-06-05", 1), // Wed again
	}
	l.Heatmap = ledger.RebuildHeatmap(l.Log)
	assert.ErrorContains(t, l.Validate(), "2024-06-05")
}

func TestValidate_CatchesStaleHeatmap(t *testing.T) {
	l := ledger.NewLedger(ledger.DefaultQuotas(), now)
	l.Log = []ledger.LogEntry{entry("log-1", ledger.Sick, "2024-06-03", 1)}
	// Heatmap deliberately not rebuilt.
	assert.ErrorContains(t, l.Validate(), "heatmap")
}
