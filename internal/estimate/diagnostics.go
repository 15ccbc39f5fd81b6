package estimate

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/lagrosa/dpwh-estimates/internal/markup"
	"github.com/lagrosa/dpwh-estimates/internal/model"
)

// Tolerance is the floating-point slack allowed when comparing stored and
// recomputed amounts.
const Tolerance = 1e-4

type LineIssue struct {
	LineID        uuid.UUID
	PayItemNumber string
	Detail        string
}

// DiagnosticsReport is the outcome of validating a persisted estimate against
// recomputation from its own stored lines. Nothing is auto-corrected: a
// previously approved estimate must never be rewritten silently.
type DiagnosticsReport struct {
	EstimateID      uuid.UUID
	StoredSummary   model.CostSummary
	ComputedSummary model.CostSummary
	SummaryMatches  bool
	MismatchedLines []LineIssue
	ZeroCostLines   []LineIssue
	UnmappedLines   []LineIssue
	CanvassLines    []LineIssue
}

// Diagnose recomputes every line's markup chain with the estimate's stored
// percentages and the summary from the stored lines, and reports divergences.
func Diagnose(est model.CostEstimate, lines []model.EstimateLine) DiagnosticsReport {
	report := DiagnosticsReport{
		EstimateID:    est.ID,
		StoredSummary: est.Summary,
	}
	pct := markup.Percentages{OCM: est.OCMPct, CP: est.CPPct, VAT: est.VATPct}

	for _, line := range lines {
		issue := LineIssue{LineID: line.ID, PayItemNumber: line.PayItemNumber}

		if line.DupaNotFound {
			issue.Detail = "no DUPA template matched during generation"
			report.UnmappedLines = append(report.UnmappedLines, issue)
			continue
		}
		if line.NeedsCanvass {
			canvass := issue
			canvass.Detail = "one or more materials priced at zero pending canvass"
			report.CanvassLines = append(report.CanvassLines, canvass)
		}
		if line.DirectCost == 0 {
			zero := issue
			zero.Detail = "direct cost is zero"
			report.ZeroCostLines = append(report.ZeroCostLines, zero)
		}

		bucketSum := line.LaborCost + line.EquipmentCost + line.MaterialCost
		if !approxEqual(bucketSum, line.DirectCost) {
			mismatch := issue
			mismatch.Detail = fmt.Sprintf("direct cost %.4f != labor+equipment+material %.4f", line.DirectCost, bucketSum)
			report.MismatchedLines = append(report.MismatchedLines, mismatch)
			continue
		}

		amounts := markup.ComputeLine(line.DirectCost, line.Quantity, pct)
		if !approxEqual(amounts.UnitPrice, line.UnitPrice) || !approxEqual(amounts.TotalAmount, line.TotalAmount) {
			mismatch := issue
			mismatch.Detail = fmt.Sprintf("stored unit price %.4f / total %.4f, recomputed %.4f / %.4f",
				line.UnitPrice, line.TotalAmount, amounts.UnitPrice, amounts.TotalAmount)
			report.MismatchedLines = append(report.MismatchedLines, mismatch)
		}
	}

	report.ComputedSummary = Summarize(lines)
	report.SummaryMatches = summariesMatch(report.StoredSummary, report.ComputedSummary)
	return report
}

func summariesMatch(stored, computed model.CostSummary) bool {
	return approxEqual(stored.TotalDirectCost, computed.TotalDirectCost) &&
		approxEqual(stored.TotalOCM, computed.TotalOCM) &&
		approxEqual(stored.TotalCP, computed.TotalCP) &&
		approxEqual(stored.SubtotalWithMarkup, computed.SubtotalWithMarkup) &&
		approxEqual(stored.TotalVAT, computed.TotalVAT) &&
		approxEqual(stored.GrandTotal, computed.GrandTotal) &&
		stored.LineCount == computed.LineCount &&
		stored.UnmappedCount == computed.UnmappedCount
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}
