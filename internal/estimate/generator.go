// Package estimate turns the BOQ lines of a takeoff version into a priced,
// markup-applied cost estimate.
package estimate

import (
	"fmt"

	"github.com/lagrosa/dpwh-estimates/internal/markup"
	"github.com/lagrosa/dpwh-estimates/internal/model"
	"github.com/lagrosa/dpwh-estimates/internal/payitem"
	"github.com/lagrosa/dpwh-estimates/internal/pricing"
)

// Input is everything one generation run needs. Templates are keyed by
// normalized pay-item number; the resolver already carries the rate book for
// the run's pricing context.
type Input struct {
	Lines     []model.BOQLine
	Templates map[string]model.DupaTemplate
	Resolver  *pricing.Resolver
	// Overrides, when non-nil, replaces the bracket-derived percentages for
	// the whole run (regulatory exceptions). A zero VAT falls back to the
	// statutory rate.
	Overrides *markup.Percentages
}

// Result is a complete generation outcome. Warnings carry the per-line
// problems (unmapped pay items, canvass-needed materials); the run itself
// succeeds even when some lines could not be fully priced.
type Result struct {
	Lines            []model.EstimateLine
	Summary          model.CostSummary
	Percentages      markup.Percentages
	UnmappedPayItems []string
	Warnings         []string
}

// pricedLine is the immutable intermediate between the pricing pass and the
// markup pass. All direct costs are known before any markup is applied.
type pricedLine struct {
	boq        model.BOQLine
	resolution pricing.Resolution
	matched    bool
}

// Generate runs the two-pass pipeline: price every line, derive the shared
// OCM/CP percentages from the aggregate direct cost, then apply the markup
// chain line by line and summarize.
func Generate(in Input) Result {
	var result Result

	// Pass 1: collect and price. Unmatched pay items become zero-cost
	// placeholders; one bad line never aborts the batch.
	priced := make([]pricedLine, 0, len(in.Lines))
	aggregateDirect := 0.0
	for _, boq := range in.Lines {
		key := payitem.Normalize(boq.PayItemNumber)
		tpl, ok := in.Templates[key]
		if !ok {
			priced = append(priced, pricedLine{boq: boq})
			result.UnmappedPayItems = append(result.UnmappedPayItems, boq.PayItemNumber)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("no DUPA template for pay item %q", boq.PayItemNumber))
			continue
		}

		res := in.Resolver.Resolve(tpl)
		priced = append(priced, pricedLine{boq: boq, resolution: res, matched: true})
		aggregateDirect += res.DirectCost * boq.Quantity

		if res.NeedsCanvass {
			for _, item := range res.Items {
				if item.RequiresCanvass {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("material %q of pay item %q has no price-book or canvass price", item.Description, boq.PayItemNumber))
				}
			}
		}
	}

	// The bracket is computed once from the aggregate, so every line of the
	// estimate shares the same OCM/CP percentage.
	pct := percentagesFor(aggregateDirect, in.Overrides)
	result.Percentages = pct

	// Pass 2: apply markup with the now-known percentages.
	result.Lines = make([]model.EstimateLine, 0, len(priced))
	for i, pl := range priced {
		line := model.EstimateLine{
			BOQLineID:     pl.boq.ID,
			PayItemNumber: pl.boq.PayItemNumber,
			Description:   pl.boq.Description,
			Unit:          pl.boq.Unit,
			Quantity:      pl.boq.Quantity,
			SortOrder:     i,
		}
		if !pl.matched {
			line.DupaNotFound = true
			result.Lines = append(result.Lines, line)
			continue
		}

		res := pl.resolution
		amounts := markup.ComputeLine(res.DirectCost, pl.boq.Quantity, pct)
		line.Items = res.Items
		line.LaborCost = res.LaborCost
		line.EquipmentCost = res.EquipmentCost
		line.MaterialCost = res.MaterialCost
		line.DirectCost = res.DirectCost
		line.OCMCost = amounts.OCM
		line.CPCost = amounts.CP
		line.VATCost = amounts.VAT
		line.UnitPrice = amounts.UnitPrice
		line.TotalAmount = amounts.TotalAmount
		line.NeedsCanvass = res.NeedsCanvass
		result.Lines = append(result.Lines, line)
	}

	result.Summary = Summarize(result.Lines)
	return result
}

func percentagesFor(aggregateDirect float64, overrides *markup.Percentages) markup.Percentages {
	if overrides == nil {
		return markup.ForDirectCost(aggregateDirect)
	}
	pct := *overrides
	if pct.VAT == 0 {
		pct.VAT = markup.DefaultVATPct
	}
	return pct
}

// AggregateDirectCost is the single definition of an estimate's total direct
// cost: the sum over lines of per-unit direct cost times quantity. Generation
// and diagnostics both use it.
func AggregateDirectCost(lines []model.EstimateLine) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.DirectCost * line.Quantity
	}
	return total
}

// Summarize aggregates estimate lines into a cost summary. Monetary totals
// are rounded to centavos here, at the summary boundary, never inside the
// per-line chain.
func Summarize(lines []model.EstimateLine) model.CostSummary {
	var totalOCM, totalCP, totalVAT, grandTotal float64
	unmapped := 0
	for _, line := range lines {
		totalOCM += line.OCMCost * line.Quantity
		totalCP += line.CPCost * line.Quantity
		totalVAT += line.VATCost * line.Quantity
		grandTotal += line.TotalAmount
		if line.DupaNotFound {
			unmapped++
		}
	}
	totalDirect := AggregateDirectCost(lines)
	return model.CostSummary{
		TotalDirectCost:    markup.Round2(totalDirect),
		TotalOCM:           markup.Round2(totalOCM),
		TotalCP:            markup.Round2(totalCP),
		SubtotalWithMarkup: markup.Round2(totalDirect + totalOCM + totalCP),
		TotalVAT:           markup.Round2(totalVAT),
		GrandTotal:         markup.Round2(grandTotal),
		LineCount:          len(lines),
		UnmappedCount:      unmapped,
	}
}
