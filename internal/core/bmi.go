package core

import (
	"math"
	"math/big"
)

// Classification is a WHO weight-status label.
type Classification string

const (
	Underweight Classification = "Abaixo do peso"
	Normal      Classification = "Peso normal"
	Overweight  Classification = "Sobrepeso"
	ObesityI    Classification = "Obesidade Grau I"
	ObesityII   Classification = "Obesidade Grau II"
	ObesityIII  Classification = "Obesidade Grau III"
)

// Bucket pairs an inclusive BMI upper bound with its label.
type Bucket struct {
	Upper float64
	Label Classification
}

// classificationTable is ordered by upper bound. Each upper bound is
// inclusive and the next bucket starts just above it.
var classificationTable = [...]Bucket{
	{18.5, Underweight},
	{25, Normal},
	{30, Overweight},
	{35, ObesityI},
	{40, ObesityII},
	{math.Inf(1), ObesityIII},
}

// Classifications returns the buckets in ascending BMI order.
func Classifications() []Bucket {
	return append([]Bucket(nil), classificationTable[:]...)
}

// Classify maps a BMI value to its bucket.
func Classify(bmi float64) Classification {
	for _, b := range classificationTable {
		if bmi <= b.Upper {
			return b.Label
		}
	}
	return ObesityIII
}

// ComputeBMI returns weight / height² computed on exact decimals, rounded
// half-up to one decimal, and the classification of the rounded value.
// ok is false when height is not positive or the BMI does not fit a
// float64.
func ComputeBMI(weightKg, heightM *big.Rat) (bmi float64, class Classification, ok bool) {
	if weightKg == nil || heightM == nil || heightM.Sign() <= 0 {
		return 0, "", false
	}
	sq := new(big.Rat).Mul(heightM, heightM)
	bmi, ok = RoundBMI(new(big.Rat).Quo(weightKg, sq))
	if !ok {
		return 0, "", false
	}
	return bmi, Classify(bmi), true
}

// RoundBMI rounds a non-negative value half-up to one decimal. ok is false
// when the result does not fit a float64.
func RoundBMI(v *big.Rat) (float64, bool) {
	scaled := new(big.Rat).Mul(v, big.NewRat(10, 1))
	scaled.Add(scaled, big.NewRat(1, 2))
	tenths := new(big.Int).Quo(scaled.Num(), scaled.Denom())

	f, _ := new(big.Rat).SetFrac(tenths, big.NewInt(10)).Float64()
	if math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
