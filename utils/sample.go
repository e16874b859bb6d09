// SPDX-License-Identifier: EPL-2.0

// Package utils holds small per-sample helpers shared by the audio pipeline
// and the playback layer.
package utils

import "math"

// CubicInterpolate evaluates a Catmull-Rom spline through y0..y3 at x, where
// x is the fractional position between y1 (x=0) and y2 (x=1).
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2

	return ((a0*x+a1)*x+a2)*x + y1
}

// Float32ToInt16 clamps x to [-1,1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return int16(x * 32767.0)
}

// Int16ToFloat32 is the inverse of Float32ToInt16 using the full negative range.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// Lerp linearly interpolates between a and b. t is clamped to [0,1].
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*Clamp(t, 0, 1)
}

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DecibelsToGain converts a dB offset to a linear gain factor.
func DecibelsToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// GainToDecibels converts a linear gain to dB. Zero or negative gain maps to -Inf.
func GainToDecibels(gain float64) float64 {
	if gain <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(gain)
}
