package pitch

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Detector estimates the fundamental frequency of a window of samples and
// how periodic the window is (clarity, 0 to 1). A zero frequency means no
// periodicity was found.
type Detector interface {
	Find(samples []float64, sampleRate int) (freq, clarity float64)
}

// McLeod implements the McLeod pitch method over the normalized square
// difference function.
type McLeod struct {
	// Cutoff picks the first key maximum at or above Cutoff times the
	// highest one.
	Cutoff float64
}

func NewMcLeod() *McLeod {
	return &McLeod{Cutoff: 0.9}
}

func (d *McLeod) Find(samples []float64, sampleRate int) (float64, float64) {
	if len(samples) < 4 || sampleRate <= 0 {
		return 0, 0
	}
	n := nsdf(samples)

	// lags past half the window overlap too few samples to be trusted
	maxima := keyMaxima(n[:len(n)/2])
	if len(maxima) == 0 {
		return 0, 0
	}

	highest := 0.0
	for _, i := range maxima {
		highest = math.Max(highest, n[i])
	}
	threshold := d.Cutoff * highest

	for _, i := range maxima {
		if n[i] < threshold {
			continue
		}
		tau, clarity := interpolate(n, i)
		if tau <= 0 {
			return 0, 0
		}
		return float64(sampleRate) / tau, math.Min(clarity, 1)
	}
	return 0, 0
}

func nextPow2(n int) int {
	v := 1
	for v < n {
		v <<= 1
	}
	return v
}

// autocorrelate computes r[tau] = sum x[j]*x[j+tau] for tau in [0, len(x))
// via the Wiener-Khinchin theorem.
func autocorrelate(x []float64) []float64 {
	size := nextPow2(2 * len(x))
	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	inverse := fft.IFFT(spectrum)

	res := make([]float64, len(x))
	for i := range res {
		res[i] = real(inverse[i])
	}
	return res
}

// nsdf is n'(tau) = 2*r(tau) / m(tau), m(tau) = sum x[j]^2 + x[j+tau]^2.
func nsdf(x []float64) []float64 {
	r := autocorrelate(x)
	res := make([]float64, len(x))

	m := 2 * r[0]
	for tau := range x {
		if tau > 0 {
			m -= x[tau-1]*x[tau-1] + x[len(x)-tau]*x[len(x)-tau]
		}
		if m > 0 {
			res[tau] = 2 * r[tau] / m
		}
	}
	return res
}

// keyMaxima returns the index of the highest point of every positive
// region after the first negative-going zero crossing.
func keyMaxima(n []float64) []int {
	var res []int
	i := 0
	for i < len(n) && n[i] > 0 {
		i++
	}

	best := -1
	for ; i < len(n); i++ {
		if n[i] > 0 {
			if best < 0 || n[i] > n[best] {
				best = i
			}
		} else if best >= 0 {
			res = append(res, best)
			best = -1
		}
	}
	// a region cut off by the end of the window has no peak in it
	return res
}

// interpolate fits a parabola through n[i-1], n[i], n[i+1] and returns the
// vertex.
func interpolate(n []float64, i int) (float64, float64) {
	if i <= 0 || i >= len(n)-1 {
		return float64(i), n[i]
	}
	a, b, c := n[i-1], n[i], n[i+1]
	denom := a - 2*b + c
	if denom == 0 {
		return float64(i), b
	}
	shift := 0.5 * (a - c) / denom
	return float64(i) + shift, b - 0.25*(a-c)*shift
}
