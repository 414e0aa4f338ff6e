/*
Package engine implements the leave allocation engine: the single
orchestrator allowed to mutate an employee's leave ledger.

ALLOCATION PIPELINE (one atomic transaction per call):
  1. Validate the request before touching the store
  2. Load the ledger; reject unknown employees and foreign admins
  3. Roll the ledger into a new cycle when the policy says it is due
  4. Conflict-check the working-day span against every log entry
  5. Quota-check the requested duration against the remaining balance
  6. Apply: bump the taken counter, append the log entry, maintain the
     heatmap, stamp the update
  7. Commit; any failure in 1-6 leaves the store byte-for-byte intact

CONCURRENCY:
  The engine is synchronous per call. Races between concurrent
  allocations for the same employee are resolved by the store's
  RunAtomic primitive - every read that informs a decision and the
  corresponding write happen inside that one transaction, so two racing
  requests can never both pass the checks against stale data.

ERRORS:
  Terminal for the call. The engine performs no retries beyond whatever
  the store does internally for transient contention; the caller decides
  whether to re-request with different parameters.

SEE ALSO:
  - ledger/types.go:  The aggregate and its invariants
  - ledger/errors.go: The error taxonomy surfaced here
  - cycle/cycle.go:   The rollover policy applied in step 3
*/
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bybuy30/leave-tracker/calendar"
	"github.com/bybuy30/leave-tracker/cycle"
	"github.com/bybuy30/leave-tracker/ledger"
)

// =============================================================================
// REQUEST
// =============================================================================

// Request asks for Duration consecutive working days of one leave type
// starting at StartDate. AdminID identifies the caller; ownership is
// enforced against the employee's owning admin. An empty AdminID skips
// the ownership check (trusted internal callers only).
type Request struct {
	EmployeeID         string
	AdminID            string
	Type               ledger.LeaveType
	StartDate          calendar.Date
	Duration           int
	HolidayDescription string
}

// Validate rejects malformed requests before any transaction starts.
// The holiday description for public leave is a caller-facing nicety
// enforced by the API layer, not here.
func (r Request) Validate() error {
	if r.EmployeeID == "" {
		return fmt.Errorf("%w: missing employee id", ledger.ErrValidation)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown leave type %q", ledger.ErrValidation, r.Type)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", ledger.ErrValidation)
	}
	if r.Duration < 1 {
		return fmt.Errorf("%w: duration must be at least 1 day", ledger.ErrValidation)
	}
	if r.StartDate.IsWeekend() {
		return fmt.Errorf("%w: %s is a %s; pick a weekday",
			ledger.ErrWeekendStart, r.StartDate, r.StartDate.Weekday())
	}
	return nil
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies allocation requests against the employee store.
type Engine struct {
	store  ledger.EmployeeStore
	quotas ledger.Quotas
	cycle  cycle.Policy
	now    func() time.Time
	log    zerolog.Logger
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the engine's notion of now. For tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger attaches a structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New builds an engine over the given store. The quota table and cycle
// policy are deployment configuration, not constants.
func New(store ledger.EmployeeStore, quotas ledger.Quotas, policy cycle.Policy, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		quotas: quotas,
		cycle:  policy,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocate grants the requested leave span, or fails with a typed error
// leaving the store unchanged. On success the committed ledger snapshot
// is returned.
func (e *Engine) Allocate(ctx context.Context, req Request) (*ledger.Ledger, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	updated, err := e.store.RunAtomic(ctx, req.EmployeeID, func(emp *ledger.Employee) error {
		if req.AdminID != "" && emp.AdminID != req.AdminID {
			return ledger.ErrForbidden
		}

		now := e.now()
		led := &emp.Ledger

		if e.cycle.Expired(led.CycleStart, now) {
			led.ResetCycle(e.quotas, now)
		}

		span := calendar.WorkingDaySpan(req.StartDate, req.Duration)

		if collisions := collide(led.Log, span); len(collisions) > 0 {
			return &ledger.ConflictError{EmployeeID: emp.ID, Dates: collisions}
		}

		balance := led.Balances[req.Type]
		if req.Duration > balance.Remaining() {
			return &ledger.QuotaExceededError{
				Type:      req.Type,
				Requested: req.Duration,
				Remaining: balance.Remaining(),
			}
		}

		balance.Taken += req.Duration
		led.Balances[req.Type] = balance

		entry := ledger.LogEntry{
			ID:        uuid.NewString(),
			Type:      req.Type,
			StartDate: req.StartDate,
			Duration:  req.Duration,
			Timestamp: now,
		}
		if req.Type == ledger.Public {
			entry.HolidayDescription = req.HolidayDescription
		}
		led.Log = append(led.Log, entry)

		if led.Heatmap == nil {
			led.Heatmap = make(ledger.Heatmap)
		}
		for _, date := range span {
			led.Heatmap.Add(date, req.Type)
		}

		emp.UpdatedAt = now
		return nil
	})
	if err != nil {
		e.log.Debug().
			Str("employee", req.EmployeeID).
			Str("type", string(req.Type)).
			Err(err).
			Msg("allocation rejected")
		return nil, err
	}

	e.log.Info().
		Str("employee", req.EmployeeID).
		Str("type", string(req.Type)).
		Str("start", req.StartDate.String()).
		Int("days", req.Duration).
		Msg("leave allocated")
	return &updated.Ledger, nil
}

// CycleStatus reports the employee's current cycle standing without
// mutating anything.
func (e *Engine) CycleStatus(ctx context.Context, employeeID, adminID string) (CycleStatus, error) {
	emp, err := e.store.Get(ctx, employeeID)
	if err != nil {
		return CycleStatus{}, err
	}
	if adminID != "" && emp.AdminID != adminID {
		return CycleStatus{}, ledger.ErrForbidden
	}
	now := e.now()
	return CycleStatus{
		CycleStart:    emp.Ledger.CycleStart,
		DaysRemaining: e.cycle.DaysRemaining(emp.Ledger.CycleStart, now),
		Expired:       e.cycle.Expired(emp.Ledger.CycleStart, now),
	}, nil
}

// CycleStatus describes where an employee sits in the quota cycle. An
// expired cycle means the next allocation will reset the counters.
type CycleStatus struct {
	CycleStart    time.Time `json:"cycleStartDate"`
	DaysRemaining int       `json:"daysRemaining"`
	Expired       bool      `json:"expired"`
}

// collide returns the calendar dates shared between the requested span
// and any existing log entry's span, sorted and de-duplicated.
func collide(log []ledger.LogEntry, span []calendar.Date) []calendar.Date {
	requested := make(map[calendar.Date]bool, len(span))
	for _, date := range span {
		requested[date] = true
	}

	hit := make(map[calendar.Date]bool)
	for _, entry := range log {
		for _, date := range entry.Span() {
			if requested[date] {
				hit[date] = true
			}
		}
	}
	if len(hit) == 0 {
		return nil
	}

	collisions := make([]calendar.Date, 0, len(hit))
	for date := range hit {
		collisions = append(collisions, date)
	}
	sort.Slice(collisions, func(i, j int) bool { return collisions[i].Before(collisions[j]) })
	return collisions
}
