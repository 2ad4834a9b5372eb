// Package utils contains small numeric helpers shared across the module.
package utils

import (
	"math"

	"github.com/golang/geo/r3"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual reports whether two floats are within epsilon of each other.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) <= epsilon
}

// RoundTo rounds a float to the given number of decimal digits.
func RoundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// Round4 rounds to the 4 decimal digits used by the serialization contract.
func Round4(v float64) float64 {
	return RoundTo(v, 4)
}

// RoundVec4 rounds each component of a vector to 4 decimal digits.
func RoundVec4(v r3.Vector) r3.Vector {
	return r3.Vector{X: Round4(v.X), Y: Round4(v.Y), Z: Round4(v.Z)}
}
