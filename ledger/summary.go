package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// SUMMARY PROJECTION - Read-only UI-facing aggregates
// =============================================================================

// TypeSummary is the per-type slice of the projection.
type TypeSummary struct {
	Type        LeaveType       `json:"type"`
	Quota       int             `json:"quota"`
	Taken       int             `json:"taken"`
	Remaining   int             `json:"remaining"`
	Utilization decimal.Decimal `json:"utilization"`
}

// Summary is the UI-facing aggregate derived from a ledger. It carries
// no state of its own and guarantees nothing beyond what the ledger
// invariants already provide.
type Summary struct {
	Types          []TypeSummary   `json:"types"`
	TotalQuota     int             `json:"totalQuota"`
	TotalTaken     int             `json:"totalTaken"`
	TotalRemaining int             `json:"totalRemaining"`
	Utilization    decimal.Decimal `json:"utilization"`
}

// Summarize projects a ledger into display aggregates. A nil ledger
// (employee without a ledger) yields empty zeros rather than an error.
func Summarize(l *Ledger) Summary {
	if l == nil {
		return Summary{Utilization: decimal.Zero}
	}
	sum := Summary{
		TotalQuota:     l.TotalQuota(),
		TotalTaken:     l.TotalTaken(),
		TotalRemaining: l.TotalRemaining(),
	}
	for _, t := range Types() {
		b := l.Balances[t]
		sum.Types = append(sum.Types, TypeSummary{
			Type:        t,
			Quota:       b.Quota,
			Taken:       b.Taken,
			Remaining:   b.Remaining(),
			Utilization: utilization(b.Taken, b.Quota),
		})
	}
	sum.Utilization = utilization(sum.TotalTaken, sum.TotalQuota)
	return sum
}

// utilization is taken/quota rounded to four places; zero when the
// quota is zero.
func utilization(taken, quota int) decimal.Decimal {
	if quota == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(taken)).
		Div(decimal.NewFromInt(int64(quota))).
		Round(4)
}
