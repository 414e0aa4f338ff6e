/*
handlers.go - HTTP handlers for the leave tracker API

PURPOSE:
  Thin translation layer between HTTP and the engine/store. Handlers
  decode and validate the wire shape, resolve the calling admin, invoke
  exactly one engine or store operation, and map typed errors onto
  status codes. No business logic lives here.

ERROR MAPPING:
  ValidationError / WeekendStart  400
  invalid credentials / token     401
  Forbidden                       403
  NotFound                        404
  Conflict                        409
  QuotaExceeded                   422
  TransientStore                  503

The error message is surfaced verbatim in the JSON body; the engine's
messages already carry the detail (colliding dates, remaining balance)
the UI must display.
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bybuy30/leave-tracker/auth"
	"github.com/bybuy30/leave-tracker/calendar"
	"github.com/bybuy30/leave-tracker/engine"
	"github.com/bybuy30/leave-tracker/ledger"
	"github.com/bybuy30/leave-tracker/report"
)

// Handler carries the API's collaborators.
type Handler struct {
	Store  ledger.EmployeeStore
	Auth   *auth.Service
	Engine *engine.Engine
	Quotas ledger.Quotas
	Log    zerolog.Logger

	now func() time.Time
}

// NewHandler wires a handler over the given collaborators.
func NewHandler(store ledger.EmployeeStore, authSvc *auth.Service, eng *engine.Engine, quotas ledger.Quotas, log zerolog.Logger) *Handler {
	return &Handler{
		Store:  store,
		Auth:   authSvc,
		Engine: eng,
		Quotas: quotas,
		Log:    log,
		now:    time.Now,
	}
}

// =============================================================================
// AUTH
// =============================================================================

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	admin, err := h.Auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrInvalidCredentials.Error()})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.List(r.Context(), adminFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if employees == nil {
		employees = []*ledger.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	now := h.now()
	emp := &ledger.Employee{
		ID:          uuid.NewString(),
		EmployeeID:  req.EmployeeID,
		Name:        req.Name,
		Nationality: req.Nationality,
		Designation: req.Designation,
		AdminID:     adminFrom(r),
		Ledger:      *ledger.NewLedger(h.Quotas, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Store.Create(r.Context(), emp); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.ownedEmployee(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.ownedEmployee(w, r); !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ALLOCATION
// =============================================================================

func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	leaveType, err := ledger.ParseLeaveType(req.LeaveType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	startDate, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", ledger.ErrValidation, err))
		return
	}
	// The engine tolerates a missing description; the API does not.
	if leaveType == ledger.Public && req.HolidayDescription == "" {
		h.writeError(w, fmt.Errorf("%w: public holidays need a description", ledger.ErrValidation))
		return
	}

	updated, err := h.Engine.Allocate(r.Context(), engine.Request{
		EmployeeID:         chi.URLParam(r, "id"),
		AdminID:            adminFrom(r),
		Type:               leaveType,
		StartDate:          startDate,
		Duration:           req.DurationDays,
		HolidayDescription: req.HolidayDescription,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, allocateResponse{
		Ledger:  updated,
		Summary: ledger.Summarize(updated),
	})
}

// =============================================================================
// PROJECTIONS
// =============================================================================

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.ownedEmployee(w, r)
	if !ok {
		return
	}
	status, err := h.Engine.CycleStatus(r.Context(), emp.ID, adminFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: ledger.Summarize(&emp.Ledger),
		Cycle:   status,
	})
}

func (h *Handler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.ownedEmployee(w, r)
	if !ok {
		return
	}
	heatmap := emp.Ledger.Heatmap
	if heatmap == nil {
		heatmap = ledger.Heatmap{}
	}
	writeJSON(w, http.StatusOK, heatmap)
}

func (h *Handler) GetLeaveLog(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.ownedEmployee(w, r)
	if !ok {
		return
	}
	log := emp.Ledger.Log
	if log == nil {
		log = []ledger.LogEntry{}
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.ownedEmployee(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "leave-summary-"+emp.EmployeeID+".pdf"))
	if err := report.LeaveSummary(emp, w); err != nil {
		h.Log.Error().Err(err).Str("employee", emp.ID).Msg("report generation failed")
	}
}

// =============================================================================
// CHANGE STREAM
// =============================================================================

// WatchEmployees streams store change events as server-sent events.
// Mirrors the original UI's live subscription to the record store.
func (h *Handler) WatchEmployees(w http.ResponseWriter, r *http.Request) {
	watcher, ok := h.Store.(ledger.WatchStore)
	if !ok {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "store does not support change streams"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range watcher.Watch(r.Context(), adminFrom(r)) {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// ownedEmployee loads the path employee and enforces admin ownership.
func (h *Handler) ownedEmployee(w http.ResponseWriter, r *http.Request) (*ledger.Employee, bool) {
	emp, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	if emp.AdminID != adminFrom(r) {
		h.writeError(w, ledger.ErrForbidden)
		return nil, false
	}
	return emp, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrWeekendStart):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrQuotaExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrTransientStore):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.Log.Error().Err(err).Msg("internal error")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
