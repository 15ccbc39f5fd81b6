// Package pricing resolves DUPA templates into currency amounts against a
// location/district/price-book context.
package pricing

import (
	"fmt"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

// HaulingCalculator supplies the per-unit hauling surcharge for a material.
// Distance and route math belongs to the hauling subsystem; the resolver
// consumes the result as a flat additive unit-cost term.
type HaulingCalculator interface {
	SurchargePerUnit(materialCode, unit string) float64
}

// Resolution is the priced breakdown of one DUPA template. Missing rates and
// prices resolve to zero with flags set; resolution never fails for gaps in
// the reference data.
type Resolution struct {
	Items         []model.CostItem
	LaborCost     float64
	EquipmentCost float64
	MaterialCost  float64
	DirectCost    float64
	NeedsCanvass  bool
}

type Resolver struct {
	book    *RateBook
	hauling HaulingCalculator
}

// NewResolver builds a resolver over a rate book. hauling may be nil, in
// which case no surcharge is applied.
func NewResolver(book *RateBook, hauling HaulingCalculator) *Resolver {
	return &Resolver{book: book, hauling: hauling}
}

// Resolve prices every labor, equipment, and material row of a template for
// one unit of its pay item. Minor tools, when the template enables them, are
// folded into the equipment bucket so that labor + equipment + material
// always equals the direct cost.
func (r *Resolver) Resolve(tpl model.DupaTemplate) Resolution {
	var res Resolution

	for _, line := range tpl.Labor {
		rate, _ := r.book.LaborRate(line.Designation)
		amount := line.Persons * line.Hours * rate
		res.LaborCost += amount
		res.Items = append(res.Items, model.CostItem{
			Kind:        model.CostItemLabor,
			Description: line.Designation,
			Persons:     line.Persons,
			Hours:       line.Hours,
			UnitRate:    rate,
			Amount:      amount,
		})
	}

	for _, line := range tpl.Equipment {
		rate, _ := r.book.EquipmentRate(line.Description)
		amount := line.Units * line.Hours * rate
		res.EquipmentCost += amount
		res.Items = append(res.Items, model.CostItem{
			Kind:        model.CostItemEquipment,
			Description: line.Description,
			Units:       line.Units,
			Hours:       line.Hours,
			UnitRate:    rate,
			Amount:      amount,
		})
	}

	if tpl.MinorToolsPct > 0 {
		amount := res.LaborCost * tpl.MinorToolsPct / 100
		res.EquipmentCost += amount
		res.Items = append(res.Items, model.CostItem{
			Kind:        model.CostItemEquipment,
			Description: fmt.Sprintf("Minor tools (%.0f%% of labor)", tpl.MinorToolsPct),
			Amount:      amount,
		})
	}

	for _, line := range tpl.Materials {
		item := model.CostItem{
			Kind:        model.CostItemMaterial,
			Description: line.Description,
			Unit:        line.Unit,
			Quantity:    line.Quantity,
		}
		if item.Description == "" {
			item.Description = line.Code
		}

		price, found := r.book.MaterialPrice(line.Code)
		if found {
			item.UnitRate = price.UnitCost
			item.Source = price.Source
			if r.hauling != nil && !line.HaulingExempt {
				item.UnitRate += r.hauling.SurchargePerUnit(line.Code, line.Unit)
			}
		} else {
			// Unpriced materials stay at zero until a canvass price exists;
			// a surcharge on top of nothing would hide the gap.
			item.RequiresCanvass = true
			res.NeedsCanvass = true
		}

		item.Amount = item.Quantity * item.UnitRate
		res.MaterialCost += item.Amount
		res.Items = append(res.Items, item)
	}

	res.DirectCost = res.LaborCost + res.EquipmentCost + res.MaterialCost
	return res
}
