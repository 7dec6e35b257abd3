package scan

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

const (
	// bedPickMinRun is the number of consecutive above-threshold bins
	// required before a crossing counts as the bed return. Shorter runs
	// are single-sample spikes and are rejected.
	bedPickMinRun = 3

	// bedPickRelThreshold places the detection threshold this fraction of
	// the way from the noise floor to the row maximum.
	bedPickRelThreshold = 0.5

	// bedPickMinContrast is the least floor-to-peak spread for which a
	// pick is attempted. Flatter rows carry no detectable interface.
	bedPickMinContrast = 0.05
)

// PickBed locates the first sustained intensity rise above the row's
// noise floor and returns its bin index, or BedPickUndetected when no
// qualifying transition exists. The noise floor is the lower quartile of
// the row's valid cells; the threshold sits bedPickRelThreshold of the
// way from floor to peak, and a crossing must persist for bedPickMinRun
// consecutive bins.
func PickBed(row []float64) int {
	valid := make([]float64, 0, len(row))
	for _, v := range row {
		if !sonar.IsMissing(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < bedPickMinRun {
		return sonar.BedPickUndetected
	}

	sort.Float64s(valid)
	floor := stat.Quantile(0.25, stat.Empirical, valid, nil)
	peak := valid[len(valid)-1]
	if peak-floor < bedPickMinContrast {
		return sonar.BedPickUndetected
	}
	threshold := floor + bedPickRelThreshold*(peak-floor)

	run := 0
	for i, v := range row {
		if !sonar.IsMissing(v) && v >= threshold {
			run++
			if run == bedPickMinRun {
				return i - bedPickMinRun + 1
			}
		} else {
			run = 0
		}
	}
	return sonar.BedPickUndetected
}
