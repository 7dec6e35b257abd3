// Package correct implements the per-channel intensity corrections:
// rolling-window radiometric normalization, phase-preserving tone
// mapping, diffusion infilling of missing samples, and frequency-domain
// noise removal. Stages run in that order and each returns a new matrix.
package correct

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2 computes the unnormalized 2-D DFT of a rows-by-cols row-major real
// matrix by transforming rows then columns.
func fft2(data []float64, rows, cols int) []complex128 {
	coef := make([]complex128, rows*cols)
	for i, v := range data {
		coef[i] = complex(v, 0)
	}
	fft2InPlace(coef, rows, cols, false)
	return coef
}

// ifft2Real inverts a 2-D spectrum and returns the real part, applying
// the 1/(rows*cols) normalization the forward transform omits.
func ifft2Real(coef []complex128, rows, cols int) []float64 {
	work := make([]complex128, len(coef))
	copy(work, coef)
	fft2InPlace(work, rows, cols, true)

	scale := 1 / float64(rows*cols)
	out := make([]float64, len(work))
	for i, c := range work {
		out[i] = real(c) * scale
	}
	return out
}

func fft2InPlace(coef []complex128, rows, cols int, inverse bool) {
	rowT := fourier.NewCmplxFFT(cols)
	buf := make([]complex128, cols)
	for r := 0; r < rows; r++ {
		row := coef[r*cols : (r+1)*cols]
		copy(buf, row)
		if inverse {
			rowT.Sequence(row, buf)
		} else {
			rowT.Coefficients(row, buf)
		}
	}

	colT := fourier.NewCmplxFFT(rows)
	colIn := make([]complex128, rows)
	colOut := make([]complex128, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			colIn[r] = coef[r*cols+c]
		}
		if inverse {
			colT.Sequence(colOut, colIn)
		} else {
			colT.Coefficients(colOut, colIn)
		}
		for r := 0; r < rows; r++ {
			coef[r*cols+c] = colOut[r]
		}
	}
}

// freqGrid returns the normalized DFT sample frequencies for length n:
// index i maps to i/n for i <= n/2 and (i-n)/n beyond.
func freqGrid(n int) []float64 {
	f := make([]float64, n)
	for i := range f {
		if i <= n/2 {
			f[i] = float64(i) / float64(n)
		} else {
			f[i] = float64(i-n) / float64(n)
		}
	}
	return f
}
