package service

import (
	"math"

	"github.com/parceldesk/courier-system/internal/core/domain"
)

const (
	DefaultBaseFee  = 50.0
	DefaultPerKgFee = 20.0
)

// FeeCalculator prices a parcel by weight: the base fee covers the first
// kilogram and every kilogram above it adds PerKg.
type FeeCalculator struct {
	Base  float64
	PerKg float64
}

// NewFeeCalculator returns a calculator, falling back to the default rates
// for non-positive values.
func NewFeeCalculator(base, perKg float64) FeeCalculator {
	if base <= 0 {
		base = DefaultBaseFee
	}
	if perKg <= 0 {
		perKg = DefaultPerKgFee
	}
	return FeeCalculator{Base: base, PerKg: perKg}
}

// Calculate returns the fee rounded to two decimals.
func (f FeeCalculator) Calculate(weightKg float64) (float64, error) {
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg < domain.MinWeightKg {
		return 0, domain.ErrInvalidWeight
	}
	if weightKg <= 1 {
		return f.Base, nil
	}
	fee := f.Base + (weightKg-1)*f.PerKg
	return math.Round(fee*100) / 100, nil
}
