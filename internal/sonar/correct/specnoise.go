package correct

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

const (
	// specNoiseRadius is the half-width of the frequency neighbourhood a
	// bin's magnitude is compared against.
	specNoiseRadius = 2

	// specNoiseMADs is the outlier threshold in scaled median absolute
	// deviations above the neighbourhood median.
	specNoiseMADs = 4.0

	// madToSigma rescales a MAD to the standard deviation of a normal
	// distribution.
	madToSigma = 1.4826
)

// RemoveSpectralNoise suppresses narrow-band periodic noise such as
// interference banding. The scan is transformed to the frequency domain
// and any bin whose magnitude stands more than specNoiseMADs scaled MADs
// above the median of its periodic neighbourhood is pulled down to that
// threshold, keeping its phase. maxAttenuation in (0,1] bounds how much
// of a bin's magnitude may be removed, protecting the broadband texture
// signal; the zero-frequency bin (the scan mean) is never touched.
// Missing cells take the valid mean for the transform and come back
// missing.
func RemoveSpectralNoise(m *sonar.ScanMatrix, maxAttenuation float64) *sonar.ScanMatrix {
	if maxAttenuation <= 0 {
		return m.Clone()
	}
	if maxAttenuation > 1 {
		maxAttenuation = 1
	}
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
	mag := make([]float64, len(spec))
	for i, c := range spec {
		mag[i] = math.Hypot(real(c), imag(c))
	}

	attenuated := 0
	neigh := make([]float64, 0, (2*specNoiseRadius+1)*(2*specNoiseRadius+1)-1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r == 0 && c == 0 {
				continue
			}
			i := r*cols + c

			neigh = neigh[:0]
			for dr := -specNoiseRadius; dr <= specNoiseRadius; dr++ {
				for dc := -specNoiseRadius; dc <= specNoiseRadius; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					rr := (r + dr + rows) % rows
					cc := (c + dc + cols) % cols
					neigh = append(neigh, mag[rr*cols+cc])
				}
			}
			med, mad := medianMAD(neigh)
			threshold := med + specNoiseMADs*madToSigma*mad
			if mag[i] <= threshold || mag[i] == 0 {
				continue
			}

			factor := threshold / mag[i]
			if floor := 1 - maxAttenuation; factor < floor {
				factor = floor
			}
			spec[i] *= complex(factor, 0)
			attenuated++
		}
	}

	out := m.Clone()
	if attenuated > 0 {
		monitoring.Logf("correct: spectral noise removal attenuated %d of %d bins", attenuated, len(spec))
		cleaned := ifft2Real(spec, rows, cols)
		for i := range out.Cells {
			if sonar.IsMissing(m.Cells[i]) {
				continue
			}
			out.Cells[i] = cleaned[i]
		}
	}
	return out
}

// medianMAD returns the median and median absolute deviation of values.
// values is reordered in place.
func medianMAD(values []float64) (med, mad float64) {
	sort.Float64s(values)
	med = stat.Quantile(0.5, stat.Empirical, values, nil)

	devs := make([]float64, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - med)
	}
	sort.Float64s(devs)
	mad = stat.Quantile(0.5, stat.Empirical, devs, nil)
	return med, mad
}
