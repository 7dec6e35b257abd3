package correct

import (
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// infillMaxIterations caps the diffusion passes. Isolated gaps close in
// one or two passes; the cap only matters for pathological inputs such
// as an almost entirely missing matrix.
const infillMaxIterations = 100

// Infill replaces every Missing cell by iterative 8-neighbour mean
// diffusion. Each pass fills the missing cells that have at least one
// valid neighbour, using only values present before the pass, so fills
// stay within their neighbourhood's bounds. Cells still missing when the
// iteration cap is hit are set to the global valid mean; the count of
// such fallback fills is returned for diagnostics. An input with no
// missing cells is returned as an identical copy.
func Infill(m *sonar.ScanMatrix) (*sonar.ScanMatrix, int) {
	out := m.Clone()
	if out.MissingCount() == 0 {
		return out, 0
	}

	for iter := 0; iter < infillMaxIterations; iter++ {
		type fill struct {
			idx int
			v   float64
		}
		var fills []fill
		remaining := 0
		for r := 0; r < out.Rows; r++ {
			for c := 0; c < out.Cols; c++ {
				if !sonar.IsMissing(out.At(r, c)) {
					continue
				}
				remaining++
				if v, ok := neighbourMean(out, r, c); ok {
					fills = append(fills, fill{idx: r*out.Cols + c, v: v})
				}
			}
		}
		if remaining == 0 {
			return out, 0
		}
		if len(fills) == 0 {
			break
		}
		for _, f := range fills {
			out.Cells[f.idx] = f.v
		}
		if len(fills) == remaining {
			return out, 0
		}
	}

	// Diffusion could not reach the leftovers: fall back to the global mean.
	mean := validMean(out.Cells)
	fallback := 0
	for i, v := range out.Cells {
		if sonar.IsMissing(v) {
			out.Cells[i] = mean
			fallback++
		}
	}
	return out, fallback
}

// neighbourMean averages the valid 8-neighbourhood of (r, c). ok is
// false when every neighbour is missing.
func neighbourMean(m *sonar.ScanMatrix, r, c int) (float64, bool) {
	sum, n := 0.0, 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			rr, cc := r+dr, c+dc
			if rr < 0 || rr >= m.Rows || cc < 0 || cc >= m.Cols {
				continue
			}
			if v := m.At(rr, cc); !sonar.IsMissing(v) {
				sum += v
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
