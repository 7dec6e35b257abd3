// Package texture reduces a corrected scan to per-window characteristic
// lengthscales via a continuous wavelet transform and clusters the
// windows into bed-texture classes.
package texture

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// morletOmega0 is the Morlet mother wavelet's non-dimensional frequency.
// Six keeps the wavelet admissible while giving good scale resolution.
const morletOmega0 = 6.0

// cwtPower computes the mean wavelet power of a 1-D series at each of
// the given scales, using the FFT form of the Morlet transform. The
// series mean is removed first so power reflects texture, not offset.
func cwtPower(series []float64, scales []float64) []float64 {
	n := len(series)
	power := make([]float64, len(scales))
	if n < 2 {
		return power
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	fft := fourier.NewCmplxFFT(n)
	seq := make([]complex128, n)
	for i, v := range series {
		seq[i] = complex(v-mean, 0)
	}
	spec := make([]complex128, n)
	fft.Coefficients(spec, seq)

	// Angular frequencies of the DFT bins.
	omega := make([]float64, n)
	for k := range omega {
		if k <= n/2 {
			omega[k] = 2 * math.Pi * float64(k) / float64(n)
		} else {
			omega[k] = 2 * math.Pi * float64(k-n) / float64(n)
		}
	}

	filtered := make([]complex128, n)
	coefs := make([]complex128, n)
	for si, s := range scales {
		// Morlet frequency response, positive frequencies only; the
		// sqrt factor keeps power comparable across scales.
		norm := math.Sqrt(2 * math.Pi * s / float64(n))
		for k := 0; k < n; k++ {
			if omega[k] > 0 {
				d := s*omega[k] - morletOmega0
				filtered[k] = spec[k] * complex(norm*math.Pow(math.Pi, -0.25)*math.Exp(-d*d/2), 0)
			} else {
				filtered[k] = 0
			}
		}
		fft.Sequence(coefs, filtered)

		sum := 0.0
		for _, c := range coefs {
			re, im := real(c)/float64(n), imag(c)/float64(n)
			sum += re*re + im*im
		}
		power[si] = sum / float64(n)
	}
	return power
}

// scaleSet builds the analyzed wavelet scales: from 2 up to maxScale in
// steps of density/10 cells (at least half a cell). Larger density means
// a coarser scale set.
func scaleSet(maxScale, density int) []float64 {
	step := float64(density) / 10
	if step < 0.5 {
		step = 0.5
	}
	var scales []float64
	for s := 2.0; s <= float64(maxScale); s += step {
		scales = append(scales, s)
	}
	if len(scales) == 0 {
		scales = []float64{2}
	}
	return scales
}

// characteristicScale returns the scale at peak power. Ties break toward
// the smallest scale, so finer texture wins.
func characteristicScale(scales, power []float64) float64 {
	best := 0
	for i := 1; i < len(power); i++ {
		if power[i] > power[best] {
			best = i
		}
	}
	return scales[best]
}
