// Package oddsmath converts between American odds, decimal odds, and
// implied probability, and removes bookmaker vig from a set of
// complementary prices.
package oddsmath

import (
	"errors"
	"math"
)

var (
	// ErrZeroAmericanOdds rejects American odds of exactly 0, which has no
	// sign and thus no defined implied probability.
	ErrZeroAmericanOdds = errors.New("american odds cannot be zero")
	// ErrDecimalOddsTooLow rejects decimal odds at or below 1.0 (no payout
	// above stake).
	ErrDecimalOddsTooLow = errors.New("decimal odds must be greater than 1.0")
	// ErrProbabilityOutOfRange rejects a probability outside the open
	// interval (0,1) where the inverse conversions are defined.
	ErrProbabilityOutOfRange = errors.New("probability must be in (0,1)")
	// ErrEmptyProbabilitySet rejects vig-removal calls given no inputs.
	ErrEmptyProbabilitySet = errors.New("probability set must be non-empty")
)

// AmericanToProb converts American odds to an implied probability including
// vig. Negative odds are favorites (|o|/(|o|+100)); positive odds are
// underdogs (100/(o+100)).
func AmericanToProb(o float64) (float64, error) {
	if o == 0 {
		return 0, ErrZeroAmericanOdds
	}
	if o < 0 {
		abs := -o
		return abs / (abs + 100), nil
	}
	return 100 / (o + 100), nil
}

// DecimalToProb converts decimal odds to an implied probability including
// vig.
func DecimalToProb(o float64) (float64, error) {
	if o <= 1.0 {
		return 0, ErrDecimalOddsTooLow
	}
	return 1 / o, nil
}

// ProbToAmerican is the inverse of AmericanToProb, defined on p in (0,1).
func ProbToAmerican(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, ErrProbabilityOutOfRange
	}
	if p >= 0.5 {
		return -100 * p / (1 - p), nil
	}
	return 100 * (1 - p) / p, nil
}

// ProbToDecimal is the inverse of DecimalToProb, defined on p in (0,1).
func ProbToDecimal(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, ErrProbabilityOutOfRange
	}
	return 1 / p, nil
}

// NoVigTwoWay removes vig from a two-way market by proportional
// normalization: p_i' = p_i / (p_a + p_b). The results sum to exactly 1.
func NoVigTwoWay(pA, pB float64) (float64, float64) {
	sum := pA + pB
	return pA / sum, pB / sum
}

// Overround is the sum of implied probabilities of all outcomes in a
// market; 1.0 is fair, greater than 1.0 reflects the bookmaker's vig.
func Overround(probs []float64) float64 {
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	return sum
}

// VigPct expresses an overround as a vig percentage: 100 * (overround - 1).
func VigPct(overround float64) float64 {
	return 100 * (overround - 1)
}

// NoVigMultiWay removes vig from an N-way market by the same proportional
// method used for two-way markets: documented as an approximation for more
// than two outcomes. Returns the normalized probabilities and the overround
// that was divided out.
func NoVigMultiWay(probs []float64) ([]float64, float64, error) {
	if len(probs) == 0 {
		return nil, 0, ErrEmptyProbabilitySet
	}
	overround := Overround(probs)
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = p / overround
	}
	return out, overround, nil
}

// RoundTripTolerance is the tolerance used by callers asserting the
// round-trip property between probability and odds conversions.
const RoundTripTolerance = 1e-3

// ApproxEqual reports whether a and b are within RoundTripTolerance of each
// other.
func ApproxEqual(a, b float64) bool {
	return math.Abs(a-b) <= RoundTripTolerance
}
