package core

// validation.go checks the two measurement cells of each row and converts
// them to canonical units.
//
// A row fails when its weight or height is empty, not a plain decimal,
// or not strictly positive after unit conversion. Failures carry the
// column, raw value and a short reason so they can be logged per line.

import (
	"fmt"
	"math"
	"math/big"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		if e.Value != "" {
			return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.Value)
		}
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Measurement is a row's weight and height in kilograms and meters. The
// exact values keep the decimals as typed so the BMI rounds without
// binary floating-point error.
type Measurement struct {
	WeightKg float64
	HeightM  float64

	Weight *big.Rat // exact kilograms
	Height *big.Rat // exact meters
}

// BMI returns the rounded BMI and its classification.
func (m Measurement) BMI() (float64, Classification, bool) {
	return ComputeBMI(m.Weight, m.Height)
}

// Normalizer extracts measurements from rows of one table.
type Normalizer struct {
	WeightColumn string
	HeightColumn string
	Decimal      byte
	HeightUnit   HeightUnit
	Threshold    float64 // auto heights above this are centimeters

	headerIdx HeaderIndex
}

// NewNormalizer creates a normalizer for the given header index.
func NewNormalizer(headerIdx HeaderIndex, weightCol, heightCol string, decimal byte, unit HeightUnit, threshold float64) *Normalizer {
	if unit == "" {
		unit = HeightAuto
	}
	if threshold <= 0 {
		threshold = DefaultHeightThreshold
	}
	return &Normalizer{
		WeightColumn: weightCol,
		HeightColumn: heightCol,
		Decimal:      decimal,
		HeightUnit:   unit,
		Threshold:    threshold,
		headerIdx:    headerIdx,
	}
}

// Normalize returns the row's measurements or the first validation error.
// A pair whose BMI does not fit a number is rejected on the height column.
func (n *Normalizer) Normalize(rec PatientRecord) (Measurement, error) {
	weight, err := n.positive(rec, n.WeightColumn)
	if err != nil {
		return Measurement{}, err
	}
	height, err := n.positive(rec, n.HeightColumn)
	if err != nil {
		return Measurement{}, err
	}

	m := Measurement{Weight: weight, Height: n.toMeters(height)}
	m.WeightKg, _ = m.Weight.Float64()
	m.HeightM, _ = m.Height.Float64()

	if _, _, ok := m.BMI(); !ok {
		return Measurement{}, ValidationError{
			Field:   n.HeightColumn,
			Value:   rec.Get(n.headerIdx, n.HeightColumn),
			Message: "BMI out of range",
		}
	}
	return m, nil
}

// toMeters applies the configured height unit.
func (n *Normalizer) toMeters(h *big.Rat) *big.Rat {
	switch n.HeightUnit {
	case HeightCentimeters:
		return new(big.Rat).Quo(h, centimetersPerMeter)
	case HeightMeters:
		return h
	default:
		if f, _ := h.Float64(); f > n.Threshold {
			return new(big.Rat).Quo(h, centimetersPerMeter)
		}
		return h
	}
}

var centimetersPerMeter = big.NewRat(100, 1)

func (n *Normalizer) positive(rec PatientRecord, column string) (*big.Rat, error) {
	raw := rec.Get(n.headerIdx, column)
	if CleanCell(raw) == "" {
		return nil, ValidationError{Field: column, Message: "required field is empty"}
	}
	v, ok := ParseDecimal(raw, n.Decimal)
	if !ok {
		return nil, ValidationError{Field: column, Value: raw, Message: "invalid number format"}
	}
	if f, _ := v.Float64(); math.IsInf(f, 0) {
		return nil, ValidationError{Field: column, Value: raw, Message: "invalid number format"}
	}
	if v.Sign() <= 0 {
		return nil, ValidationError{Field: column, Value: raw, Message: "must be a positive number"}
	}
	return v, nil
}
