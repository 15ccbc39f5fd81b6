package pricing

import (
	"strings"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

// RateBook holds the reference rates for one pricing context as in-memory
// lookup maps. It is built once per generation run and read-only afterwards.
type RateBook struct {
	laborRates     map[string]float64
	equipmentRates map[string]float64
	bookPrices     map[string]model.MaterialPrice
	canvassPrices  map[string]model.MaterialPrice
}

// NewRateBook indexes rate rows already filtered to the requested location,
// district, and price-book version. Inactive material prices are skipped;
// per-material, the price-book row wins over the canvass row at lookup time.
func NewRateBook(labor []model.LaborRate, equipment []model.EquipmentRate, materials []model.MaterialPrice) *RateBook {
	book := &RateBook{
		laborRates:     make(map[string]float64, len(labor)),
		equipmentRates: make(map[string]float64, len(equipment)),
		bookPrices:     make(map[string]model.MaterialPrice),
		canvassPrices:  make(map[string]model.MaterialPrice),
	}
	for _, rate := range labor {
		book.laborRates[rateKey(rate.Designation)] = rate.HourlyRate
	}
	for _, rate := range equipment {
		book.equipmentRates[rateKey(rate.Description)] = rate.HourlyRate
	}
	for _, price := range materials {
		if !price.Active {
			continue
		}
		key := rateKey(price.Code)
		switch price.Source {
		case model.SourceCanvass:
			book.canvassPrices[key] = price
		default:
			book.bookPrices[key] = price
		}
	}
	return book
}

// LaborRate returns the hourly rate for a designation, or 0 when the
// designation is not in the book. A miss is not an error.
func (b *RateBook) LaborRate(designation string) (float64, bool) {
	rate, ok := b.laborRates[rateKey(designation)]
	return rate, ok
}

func (b *RateBook) EquipmentRate(description string) (float64, bool) {
	rate, ok := b.equipmentRates[rateKey(description)]
	return rate, ok
}

// MaterialPrice resolves a material code in priority order: active price-book
// entry first, then active canvass entry.
func (b *RateBook) MaterialPrice(code string) (model.MaterialPrice, bool) {
	key := rateKey(code)
	if price, ok := b.bookPrices[key]; ok {
		return price, true
	}
	if price, ok := b.canvassPrices[key]; ok {
		return price, true
	}
	return model.MaterialPrice{}, false
}

func rateKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
