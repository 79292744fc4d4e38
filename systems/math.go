package systems

import (
	"math"
	"math/rand"
)

// Clamp functions for common value ranges

// clampFloat clamps a float32 value between min and max.
func clampFloat(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Angle helpers

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float32) float32 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// easeAngle moves current toward target by fraction t along the shorter arc.
func easeAngle(current, target, t float32) float32 {
	return current + normalizeAngle(target-current)*clamp01(t)
}

// Distance functions

// distanceSq returns the squared distance between two points.
func distanceSq(x1, y1, x2, y2 float32) float32 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// distance returns the Euclidean distance between two points.
func distance(x1, y1, x2, y2 float32) float32 {
	return float32(math.Sqrt(float64(distanceSq(x1, y1, x2, y2))))
}

// Sampling

// SampleRange draws a uniform value from [min, max).
func SampleRange(rng *rand.Rand, min, max float64) float32 {
	if max <= min {
		return float32(min)
	}
	return float32(min + rng.Float64()*(max-min))
}

// Fast math for hot-path physics. Avoids float32->float64 conversions
// that Go's math package requires.

// fastSqrt approximates sqrt(x) using fast inverse sqrt.
func fastSqrt(x float32) float32 {
	if x <= 0 {
		return 0
	}
	i := math.Float32bits(x)
	i = 0x5f375a86 - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*x*y*y)
	return x * y
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
