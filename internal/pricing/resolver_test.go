package pricing

import (
	"math"
	"testing"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type flatHauling struct {
	rate float64
}

func (h flatHauling) SurchargePerUnit(code, unit string) float64 {
	return h.rate
}

func testBook() *RateBook {
	return NewRateBook(
		[]model.LaborRate{
			{Designation: "Foreman", Location: "Region IV-A", HourlyRate: 120},
			{Designation: "Skilled Laborer", Location: "Region IV-A", HourlyRate: 80},
		},
		[]model.EquipmentRate{
			{Description: "Backhoe 0.80 cu.m.", HourlyRate: 1800},
		},
		[]model.MaterialPrice{
			{Code: "CM02", District: "Quezon 1st", PriceBookVersion: "2024-1", UnitCost: 350, Source: model.SourcePriceBook, Active: true},
			{Code: "CM03", District: "Quezon 1st", PriceBookVersion: "2024-1", UnitCost: 410, Source: model.SourceCanvass, Active: true},
			{Code: "CM04", District: "Quezon 1st", PriceBookVersion: "2023-2", UnitCost: 999, Source: model.SourcePriceBook, Active: false},
		},
	)
}

func TestResolveBucketsAndDirectCost(t *testing.T) {
	tpl := model.DupaTemplate{
		PayItemNumber: "900(1)c",
		MinorToolsPct: 10,
		Labor: []model.LaborLine{
			{Designation: "Foreman", Persons: 1, Hours: 8},
			{Designation: "Skilled Laborer", Persons: 2, Hours: 8},
		},
		Equipment: []model.EquipmentLine{
			{Description: "Backhoe 0.80 cu.m.", Units: 1, Hours: 4},
		},
		Materials: []model.MaterialLine{
			{Code: "CM02", Unit: "bag", Quantity: 9.5},
		},
	}

	res := NewResolver(testBook(), nil).Resolve(tpl)

	wantLabor := 1*8*120.0 + 2*8*80.0 // 2240
	if res.LaborCost != wantLabor {
		t.Errorf("LaborCost = %v, want %v", res.LaborCost, wantLabor)
	}

	wantEquipment := 1*4*1800.0 + wantLabor*0.10 // minor tools folded in
	if math.Abs(res.EquipmentCost-wantEquipment) > 1e-9 {
		t.Errorf("EquipmentCost = %v, want %v", res.EquipmentCost, wantEquipment)
	}

	wantMaterial := 9.5 * 350.0
	if res.MaterialCost != wantMaterial {
		t.Errorf("MaterialCost = %v, want %v", res.MaterialCost, wantMaterial)
	}

	wantDirect := wantLabor + wantEquipment + wantMaterial
	if math.Abs(res.DirectCost-wantDirect) > 1e-9 {
		t.Errorf("DirectCost = %v, want %v", res.DirectCost, wantDirect)
	}
	if res.NeedsCanvass {
		t.Error("NeedsCanvass = true for a fully priced template")
	}
	if len(res.Items) != 5 { // 2 labor + 1 equipment + minor tools + 1 material
		t.Errorf("len(Items) = %d, want 5", len(res.Items))
	}
}

func TestResolveMissingRatesAreZeroNotErrors(t *testing.T) {
	tpl := model.DupaTemplate{
		Labor:     []model.LaborLine{{Designation: "Rigger", Persons: 1, Hours: 8}},
		Equipment: []model.EquipmentLine{{Description: "Crane 25t", Units: 1, Hours: 8}},
	}

	res := NewResolver(testBook(), nil).Resolve(tpl)

	if res.DirectCost != 0 {
		t.Errorf("DirectCost = %v, want 0", res.DirectCost)
	}
	for _, item := range res.Items {
		if item.UnitRate != 0 || item.Amount != 0 {
			t.Errorf("item %q resolved to rate %v amount %v, want zeros", item.Description, item.UnitRate, item.Amount)
		}
	}
}

func TestResolveMaterialFallback(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		wantSource  model.PriceSource
		wantRate    float64
		wantCanvass bool
	}{
		{"price-book entry wins", "CM02", model.SourcePriceBook, 350, false},
		{"canvass fallback", "CM03", model.SourceCanvass, 410, false},
		{"missing in both sources", "CM01", "", 0, true},
		{"inactive entry is ignored", "CM04", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := model.DupaTemplate{
				Materials: []model.MaterialLine{{Code: tt.code, Unit: "cu.m.", Quantity: 2}},
			}
			res := NewResolver(testBook(), nil).Resolve(tpl)

			item := res.Items[0]
			if item.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", item.Source, tt.wantSource)
			}
			if item.UnitRate != tt.wantRate {
				t.Errorf("UnitRate = %v, want %v", item.UnitRate, tt.wantRate)
			}
			if item.RequiresCanvass != tt.wantCanvass {
				t.Errorf("RequiresCanvass = %v, want %v", item.RequiresCanvass, tt.wantCanvass)
			}
			if res.NeedsCanvass != tt.wantCanvass {
				t.Errorf("NeedsCanvass = %v, want %v", res.NeedsCanvass, tt.wantCanvass)
			}
		})
	}
}

func TestResolveHaulingSurcharge(t *testing.T) {
	tpl := model.DupaTemplate{
		Materials: []model.MaterialLine{
			{Code: "CM02", Unit: "bag", Quantity: 4},
			{Code: "CM03", Unit: "cu.m.", Quantity: 1, HaulingExempt: true},
			{Code: "CM01", Unit: "cu.m.", Quantity: 1}, // unpriced, no surcharge
		},
	}

	res := NewResolver(testBook(), flatHauling{rate: 25}).Resolve(tpl)

	if got := res.Items[0].UnitRate; got != 375 {
		t.Errorf("surcharged UnitRate = %v, want 375", got)
	}
	if got := res.Items[1].UnitRate; got != 410 {
		t.Errorf("exempt UnitRate = %v, want 410", got)
	}
	if got := res.Items[2].UnitRate; got != 0 {
		t.Errorf("unpriced UnitRate = %v, want 0", got)
	}
}

func TestRateBookKeyNormalization(t *testing.T) {
	book := NewRateBook(
		[]model.LaborRate{{Designation: "  Foreman ", HourlyRate: 100}},
		nil,
		[]model.MaterialPrice{{Code: "cm02", UnitCost: 10, Source: model.SourcePriceBook, Active: true}},
	)

	if rate, ok := book.LaborRate("foreman"); !ok || rate != 100 {
		t.Errorf("LaborRate(foreman) = (%v, %v), want (100, true)", rate, ok)
	}
	if price, ok := book.MaterialPrice(" CM02 "); !ok || price.UnitCost != 10 {
		t.Errorf("MaterialPrice(CM02) = (%v, %v), want unit cost 10", price.UnitCost, ok)
	}
}
