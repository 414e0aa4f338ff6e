package api

import (
	"github.com/bybuy30/leave-tracker/engine"
	"github.com/bybuy30/leave-tracker/ledger"
)

// =============================================================================
// REQUESTS
// =============================================================================

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createEmployeeRequest struct {
	EmployeeID  string `json:"employeeId"`
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
	Designation string `json:"designation"`
}

type allocateRequest struct {
	LeaveType          string `json:"leaveType"`
	StartDate          string `json:"startDate"`
	DurationDays       int    `json:"durationDays"`
	HolidayDescription string `json:"holidayDescription,omitempty"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type tokenResponse struct {
	Token string `json:"token"`
}

type allocateResponse struct {
	Ledger  *ledger.Ledger `json:"ledger"`
	Summary ledger.Summary `json:"summary"`
}

type summaryResponse struct {
	Summary ledger.Summary     `json:"summary"`
	Cycle   engine.CycleStatus `json:"cycle"`
}

type errorResponse struct {
	Error string `json:"error"`
}
