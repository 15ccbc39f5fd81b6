package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

// RateRepository loads rate-book reference data. Each generation run loads
// its context's rows once and indexes them in memory; nothing here is queried
// per BOQ line.
type RateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) ListLaborRates(ctx context.Context, location string) ([]model.LaborRate, error) {
	var rates []model.LaborRate
	err := r.db.WithContext(ctx).Raw(`
		SELECT designation, location, hourly_rate, effective_date
		FROM labor_rates
		WHERE location = ?
		ORDER BY designation
	`, location).Scan(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *RateRepository) ListEquipmentRates(ctx context.Context) ([]model.EquipmentRate, error) {
	var rates []model.EquipmentRate
	err := r.db.WithContext(ctx).Raw(`
		SELECT description, hourly_rate, effective_date
		FROM equipment_rates
		ORDER BY description
	`).Scan(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// ListMaterialPrices returns the active rows of both sources for one district
// and price-book version; the price-book/canvass priority is applied at
// lookup time, not here.
func (r *RateRepository) ListMaterialPrices(ctx context.Context, district, version string) ([]model.MaterialPrice, error) {
	var prices []model.MaterialPrice
	err := r.db.WithContext(ctx).Raw(`
		SELECT code, district, pricebook_version AS price_book_version, unit_cost, source, active, effective_date
		FROM material_prices
		WHERE district = ?
			AND pricebook_version = ?
			AND active
		ORDER BY code, source
	`, district, version).Scan(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}
