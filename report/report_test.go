package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bybuy30/leave-tracker/calendar"
	"github.com/bybuy30/leave-tracker/ledger"
	"github.com/bybuy30/leave-tracker/report"
)

func TestLeaveSummary_ProducesPDF(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	emp := &ledger.Employee{
		ID:          "e1",
		EmployeeID:  "E-100",
		Name:        "Asha",
		Designation: "Engineer",
		Ledger:      *ledger.NewLedger(ledger.DefaultQuotas(), now),
	}
	emp.Ledger.Balances[ledger.Sick] = ledger.Balance{Quota: 12, Taken: 3}
	emp.Ledger.Log = append(emp.Ledger.Log, ledger.LogEntry{
		ID: "l1", Type: ledger.Sick,
		StartDate: calendar.MustParseDate("2024-06-10"), Duration: 3,
		Timestamp: now,
	})

	var buf bytes.Buffer
	require.NoError(t, report.LeaveSummary(emp, &buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000, "a rendered page is never this small")
}

func TestLeaveSummary_EmptyHistory(t *testing.T) {
	emp := &ledger.Employee{
		ID:     "e1",
		Name:   "Asha",
		Ledger: *ledger.NewLedger(ledger.DefaultQuotas(), time.Now()),
	}
	var buf bytes.Buffer
	require.NoError(t, report.LeaveSummary(emp, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
