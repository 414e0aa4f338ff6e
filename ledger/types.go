/*
Package ledger defines the per-employee leave ledger: the one mutable
aggregate in the system.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveType: the fixed enumeration (sick, casual, public)
  - Quotas: the configurable per-type day allowances
  - Balance: quota/taken counters for one leave type
  - LogEntry: one allocation event, occupying a working-day span
  - Heatmap: per-date occupancy aggregate, derived from the log
  - Ledger: the aggregate tying all of the above together

INVARIANTS (must hold after every committed mutation):
  1. For every type, taken equals the sum of durations of log entries
     written since the last cycle reset, and taken <= quota.
  2. No two log entries' working-day spans share a calendar date.
  3. CycleStart is monotonically non-decreasing.
  4. Heatmap[date].Total counts log entries covering date, EXCLUDING
     public holidays; Heatmap[date].PerType counts all types. Public
     holidays still occupy the day for conflict purposes - they are
     only excluded from the occupancy total.

The ledger is mutated exclusively inside the allocation engine's atomic
transaction (see package engine). Everything here is plain data plus
pure helpers so it serializes cleanly as a single document.

SEE ALSO:
  - errors.go: Error taxonomy for allocation failures
  - summary.go: Read-only UI-facing aggregates
  - store.go: Persistence contract (atomic read-modify-write)
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/bybuy30/leave-tracker/calendar"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveType identifies one of the fixed leave categories.
type LeaveType string

const (
	Sick   LeaveType = "sick"
	Casual LeaveType = "casual"
	Public LeaveType = "public"
)

// Types returns the canonical enumeration in display order.
func Types() []LeaveType {
	return []LeaveType{Sick, Casual, Public}
}

// Valid reports whether t is one of the canonical types.
func (t LeaveType) Valid() bool {
	switch t {
	case Sick, Casual, Public:
		return true
	}
	return false
}

// ParseLeaveType maps a wire string onto the canonical enumeration.
// "annual" is a legacy alias for casual leave kept for records written
// by older clients; it is accepted on input and never emitted.
func ParseLeaveType(s string) (LeaveType, error) {
	switch LeaveType(s) {
	case Sick:
		return Sick, nil
	case Casual, LeaveType("annual"):
		return Casual, nil
	case Public:
		return Public, nil
	}
	return "", fmt.Errorf("%w: unknown leave type %q", ErrValidation, s)
}

// =============================================================================
// QUOTAS - Per-deployment allowance table
// =============================================================================

// Quotas maps each leave type to its per-cycle day allowance. It is a
// configuration value injected into the engine, not a constant.
type Quotas map[LeaveType]int

// DefaultQuotas returns the standard allowance table.
func DefaultQuotas() Quotas {
	return Quotas{Sick: 12, Casual: 12, Public: 11}
}

// Total returns the combined allowance across all types.
func (q Quotas) Total() int {
	total := 0
	for _, n := range q {
		total += n
	}
	return total
}

// =============================================================================
// BALANCE - Quota/taken counters for one type
// =============================================================================

type Balance struct {
	Quota int `json:"quota"`
	Taken int `json:"taken"`
}

// Remaining returns the unconsumed allowance, never negative.
func (b Balance) Remaining() int {
	if b.Taken >= b.Quota {
		return 0
	}
	return b.Quota - b.Taken
}

// =============================================================================
// LOG ENTRY - One allocation event
// =============================================================================

// LogEntry records a single allocation. It logically occupies the
// working-day span starting at StartDate and covering Duration working
// days, weekends skipped.
type LogEntry struct {
	ID                 string        `json:"id"`
	Type               LeaveType     `json:"type"`
	StartDate          calendar.Date `json:"startDate"`
	Duration           int           `json:"duration"`
	Timestamp          time.Time     `json:"timestamp"`
	HolidayDescription string        `json:"holidayDescription,omitempty"`
}

// Span returns the calendar dates this entry occupies.
func (e LogEntry) Span() []calendar.Date {
	return calendar.WorkingDaySpan(e.StartDate, e.Duration)
}

// =============================================================================
// HEATMAP - Per-date occupancy aggregate
// =============================================================================

// DayCount is the occupancy of a single calendar date.
type DayCount struct {
	Total   int               `json:"total"`
	PerType map[LeaveType]int `json:"perType"`
}

// Heatmap maps calendar dates to occupancy counts. It is a maintained
// cache over the log; RebuildHeatmap is the reference computation.
type Heatmap map[calendar.Date]DayCount

// Add records one leave day of the given type on date. Public holidays
// are counted per-type but excluded from Total.
func (h Heatmap) Add(date calendar.Date, t LeaveType) {
	day := h[date]
	if day.PerType == nil {
		day.PerType = make(map[LeaveType]int)
	}
	if t != Public {
		day.Total++
	}
	day.PerType[t]++
	h[date] = day
}

// RebuildHeatmap recomputes the heatmap from scratch out of the log.
// The maintained heatmap must always equal this.
func RebuildHeatmap(log []LogEntry) Heatmap {
	h := make(Heatmap)
	for _, entry := range log {
		for _, date := range entry.Span() {
			h.Add(date, entry.Type)
		}
	}
	return h
}

// Equal compares two heatmaps structurally. Empty and nil are equal.
func (h Heatmap) Equal(other Heatmap) bool {
	if len(h) != len(other) {
		return false
	}
	for date, day := range h {
		o, ok := other[date]
		if !ok || o.Total != day.Total || len(o.PerType) != len(day.PerType) {
			return false
		}
		for t, n := range day.PerType {
			if o.PerType[t] != n {
				return false
			}
		}
	}
	return true
}

// =============================================================================
// LEDGER - The per-employee aggregate
// =============================================================================

// Ledger is the mutable leave record for one employee.
type Ledger struct {
	Balances   map[LeaveType]Balance `json:"leaveBalances"`
	Log        []LogEntry            `json:"leaveLog"`
	Heatmap    Heatmap               `json:"heatmap"`
	CycleStart time.Time             `json:"cycleStartDate"`
}

// NewLedger creates a fresh ledger with zero taken counts at the given
// quotas and a cycle starting now.
func NewLedger(quotas Quotas, now time.Time) *Ledger {
	l := &Ledger{
		Balances:   make(map[LeaveType]Balance, len(quotas)),
		Heatmap:    make(Heatmap),
		CycleStart: now,
	}
	for t, quota := range quotas {
		l.Balances[t] = Balance{Quota: quota}
	}
	return l
}

// ResetCycle replaces the balances with fresh zero-taken counters at
// the given quotas and restarts the cycle. Historical log entries (and
// the heatmap derived from them) are retained for audit.
func (l *Ledger) ResetCycle(quotas Quotas, now time.Time) {
	l.Balances = make(map[LeaveType]Balance, len(quotas))
	for t, quota := range quotas {
		l.Balances[t] = Balance{Quota: quota}
	}
	l.CycleStart = now
}

// TotalQuota is the combined allowance across all types.
func (l *Ledger) TotalQuota() int {
	total := 0
	for _, b := range l.Balances {
		total += b.Quota
	}
	return total
}

// TotalTaken is the combined consumption across all types.
func (l *Ledger) TotalTaken() int {
	total := 0
	for _, b := range l.Balances {
		total += b.Taken
	}
	return total
}

// TotalRemaining is the combined unconsumed allowance, never negative.
func (l *Ledger) TotalRemaining() int {
	remaining := l.TotalQuota() - l.TotalTaken()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Clone returns a deep copy. Stores hand mutators a clone so a failed
// transaction can never leak partial writes.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	out := &Ledger{
		Balances:   make(map[LeaveType]Balance, len(l.Balances)),
		Log:        make([]LogEntry, len(l.Log)),
		Heatmap:    make(Heatmap, len(l.Heatmap)),
		CycleStart: l.CycleStart,
	}
	for t, b := range l.Balances {
		out.Balances[t] = b
	}
	copy(out.Log, l.Log)
	for date, day := range l.Heatmap {
		perType := make(map[LeaveType]int, len(day.PerType))
		for t, n := range day.PerType {
			perType[t] = n
		}
		out.Heatmap[date] = DayCount{Total: day.Total, PerType: perType}
	}
	return out
}

// Validate checks the structural invariants that do not depend on the
// cycle boundary: taken never exceeds quota, no two log entries overlap
// on a calendar date, and the maintained heatmap matches the log.
func (l *Ledger) Validate() error {
	for t, b := range l.Balances {
		if b.Taken > b.Quota {
			return fmt.Errorf("balance for %s: taken %d exceeds quota %d", t, b.Taken, b.Quota)
		}
	}
	seen := make(map[calendar.Date]string)
	for _, entry := range l.Log {
		for _, date := range entry.Span() {
			if prev, ok := seen[date]; ok {
				return fmt.Errorf("log entries %s and %s both occupy %s", prev, entry.ID, date)
			}
			seen[date] = entry.ID
		}
	}
	if !l.Heatmap.Equal(RebuildHeatmap(l.Log)) {
		return fmt.Errorf("heatmap inconsistent with leave log")
	}
	return nil
}

// =============================================================================
// EMPLOYEE - Identity plus owned ledger
// =============================================================================

// Employee is the identity record the ledger hangs off. The allocation
// engine never creates or deletes employees; it only reads the ID and
// owning admin and mutates the ledger.
type Employee struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	Name        string    `json:"name"`
	Nationality string    `json:"nationality"`
	Designation string    `json:"designation"`
	AdminID     string    `json:"adminId"`
	Ledger      Ledger    `json:"ledger"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the employee and its ledger.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	out := *e
	out.Ledger = *e.Ledger.Clone()
	return &out
}
