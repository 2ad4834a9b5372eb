package utils

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
}

func TestRounding(t *testing.T) {
	test.That(t, Round4(0.123456), test.ShouldEqual, 0.1235)
	test.That(t, Round4(-0.00004), test.ShouldEqual, 0.0)
	v := RoundVec4(r3.Vector{X: 1.00001, Y: -2.55555, Z: 0})
	test.That(t, v.X, test.ShouldEqual, 1.0)
	test.That(t, v.Y, test.ShouldEqual, -2.5556)
}

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1.0, 1.0000001, 1e-6), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1.0, 1.1, 1e-6), test.ShouldBeFalse)
}
