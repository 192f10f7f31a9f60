package pitch

import "math"

// HighPass runs a one-pole high-pass filter over x:
// y[i] = a*y[i-1] + a*(x[i]-x[i-1]), starting from y[0] = 0.
func HighPass(x []float64, a float64) []float64 {
	y := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		y[i] = a*y[i-1] + a*(x[i]-x[i-1])
	}
	return y
}

func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// window copies size samples starting at start, zero-padding past the end.
func window(samples []float64, start, size int) []float64 {
	res := make([]float64, size)
	if start < 0 || start >= len(samples) {
		return res
	}
	copy(res, samples[start:])
	return res
}
