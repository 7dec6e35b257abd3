package correct

import (
	"math"

	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// toneMapEpsilon guards the phase division when all odd responses are
// zero at a cell.
const toneMapEpsilon = 1e-12

// ToneMap compresses the dynamic range of a scan while preserving local
// phase structure (the monogenic-signal method). The scan is high-pass
// filtered in the frequency domain so content larger than wavelength
// cells is suppressed, the Riesz filter pair extracts a pair of odd
// responses, and each cell becomes sin(phase) * log1p(energy). A
// constant scan maps to all zeros. The output is not rescaled; use
// Rescale01 before stages that expect [0,1].
//
// Missing cells take the valid-cell mean for the transform and are
// marked missing again in the output.
func ToneMap(m *sonar.ScanMatrix, wavelength float64, order int) *sonar.ScanMatrix {
	out := m.Clone()
	rows, cols := m.Rows, m.Cols

	data := make([]float64, len(m.Cells))
	fillMean := validMean(m.Cells)
	for i, v := range m.Cells {
		if sonar.IsMissing(v) {
			data[i] = fillMean
		} else {
			data[i] = v
		}
	}

	spec := fft2(data, rows, cols)

	// Normalized frequency grids: u1 across columns, u2 down rows.
	u1 := freqGrid(cols)
	u2 := freqGrid(rows)

	// High-pass Butterworth weight and the Riesz pair. The zero-frequency
	// bin is branched around, never divided.
	fSpec := make([]complex128, len(spec))
	h1Spec := make([]complex128, len(spec))
	h2Spec := make([]complex128, len(spec))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if r == 0 && c == 0 {
				continue
			}
			radius := math.Hypot(u1[c], u2[r])
			weight := 1 - 1/(1+math.Pow(radius*wavelength, 2*float64(order)))
			base := spec[i] * complex(weight, 0)
			fSpec[i] = base
			h1Spec[i] = base * complex(0, -u1[c]/radius)
			h2Spec[i] = base * complex(0, -u2[r]/radius)
		}
	}

	f := ifft2Real(fSpec, rows, cols)
	h1 := ifft2Real(h1Spec, rows, cols)
	h2 := ifft2Real(h2Spec, rows, cols)

	for i := range out.Cells {
		if sonar.IsMissing(m.Cells[i]) {
			out.Cells[i] = sonar.Missing
			continue
		}
		odd := math.Sqrt(h1[i]*h1[i] + h2[i]*h2[i])
		phase := math.Atan(f[i] / (odd + toneMapEpsilon))
		energy := math.Sqrt(f[i]*f[i] + h1[i]*h1[i] + h2[i]*h2[i])
		out.Cells[i] = math.Sin(phase) * math.Log1p(energy)
	}
	return out
}

// Rescale01 linearly maps the valid cells of a matrix onto [0,1] in
// place. A constant matrix maps to zeros.
func Rescale01(m *sonar.ScanMatrix) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range m.Cells {
		if sonar.IsMissing(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if !(hi > lo) {
		for i, v := range m.Cells {
			if !sonar.IsMissing(v) {
				m.Cells[i] = 0
			}
		}
		return
	}
	span := hi - lo
	for i, v := range m.Cells {
		if !sonar.IsMissing(v) {
			m.Cells[i] = (v - lo) / span
		}
	}
}

func validMean(cells []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range cells {
		if !sonar.IsMissing(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
