package correct

import (
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// Radiometric normalizes along-track gain drift. For every range bin the
// cell is divided by the largest intensity inside a centered window of
// maxW pings in that bin, so each column's local peak maps to 1. An even
// maxW puts the extra ping on the earlier side. Windows shrink at the
// matrix edges rather than wrapping; maxW at or above the row count
// degenerates to one global per-column normalization. Missing cells stay
// missing and are excluded from the window statistic.
func Radiometric(m *sonar.ScanMatrix, maxW int) *sonar.ScanMatrix {
	out := m.Clone()
	if maxW < 1 {
		maxW = 1
	}
	global := maxW >= m.Rows
	half := maxW / 2
	up := maxW - 1 - half

	for c := 0; c < m.Cols; c++ {
		for r := 0; r < m.Rows; r++ {
			v := m.At(r, c)
			if sonar.IsMissing(v) {
				continue
			}
			lo, hi := 0, m.Rows-1
			if !global {
				if lo = r - half; lo < 0 {
					lo = 0
				}
				if hi = r + up; hi > m.Rows-1 {
					hi = m.Rows - 1
				}
			}
			peak := 0.0
			seen := false
			for w := lo; w <= hi; w++ {
				wv := m.At(w, c)
				if sonar.IsMissing(wv) {
					continue
				}
				if !seen || wv > peak {
					peak = wv
					seen = true
				}
			}
			if !seen || peak <= 0 {
				out.Set(r, c, 0)
				continue
			}
			scaled := v / peak
			if scaled > 1 {
				scaled = 1
			} else if scaled < 0 {
				scaled = 0
			}
			out.Set(r, c, scaled)
		}
	}
	return out
}
