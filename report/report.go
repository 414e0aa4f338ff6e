// Package report renders per-employee leave summaries as PDF, the
// export counterpart of the on-screen tables and heatmap.
package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/bybuy30/leave-tracker/ledger"
)

// maxLogRows bounds the history table so the report stays one page for
// typical ledgers.
const maxLogRows = 25

// LeaveSummary writes a PDF summary of the employee's ledger to w.
func LeaveSummary(emp *ledger.Employee, w io.Writer) error {
	sum := ledger.Summarize(&emp.Ledger)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Leave Summary")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("%s (%s) - %s", emp.Name, emp.EmployeeID, emp.Designation))
	pdf.Ln(6)
	if !emp.Ledger.CycleStart.IsZero() {
		pdf.Cell(0, 6, "Cycle started "+emp.Ledger.CycleStart.Format("2006-01-02"))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// Balances table
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 8, "Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Quota", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Taken", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Remaining", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, ts := range sum.Types {
		pdf.CellFormat(40, 8, string(ts.Type), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", ts.Quota), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", ts.Taken), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", ts.Remaining), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(40, 8, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%d", sum.TotalQuota), "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%d", sum.TotalTaken), "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, fmt.Sprintf("%d", sum.TotalRemaining), "1", 1, "R", false, 0, "")
	pdf.Ln(8)

	// Recent history
	if len(emp.Ledger.Log) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Leave History")
		pdf.Ln(10)

		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 7, "Start", "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, "Type", "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, "Days", "1", 0, "R", false, 0, "")
		pdf.CellFormat(75, 7, "Note", "1", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		entries := emp.Ledger.Log
		if len(entries) > maxLogRows {
			entries = entries[len(entries)-maxLogRows:]
		}
		for _, entry := range entries {
			pdf.CellFormat(30, 7, entry.StartDate.String(), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 7, string(entry.Type), "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 7, fmt.Sprintf("%d", entry.Duration), "1", 0, "R", false, 0, "")
			pdf.CellFormat(75, 7, entry.HolidayDescription, "1", 1, "L", false, 0, "")
		}
	}

	return pdf.Output(w)
}
