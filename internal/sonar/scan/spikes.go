package scan

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RemoveSpikes replaces values further than numStds standard deviations
// from the series mean with a linear interpolation between their valid
// neighbours. The lower cut is clamped at zero, matching instrument
// traces (depth, heading rate) that cannot go negative. Used on depth and
// heading series before scan assembly. The input is modified in place.
func RemoveSpikes(series []float64, numStds float64) {
	if len(series) < 3 {
		return
	}
	mean, std := stat.MeanStdDev(series, nil)
	high := mean + numStds*std
	low := math.Max(mean-numStds*std, 0)

	bad := make([]bool, len(series))
	any := false
	for i, v := range series {
		if v > high || v < low || math.IsNaN(v) {
			bad[i] = true
			any = true
		}
	}
	if !any {
		return
	}
	interpolateOver(series, bad)
}

// interpolateOver rewrites the flagged entries by linear interpolation
// between the nearest unflagged neighbours; flagged runs touching either
// end take the nearest unflagged value. A fully flagged series is left
// untouched.
func interpolateOver(series []float64, bad []bool) {
	firstGood, lastGood := -1, -1
	for i, b := range bad {
		if !b {
			if firstGood < 0 {
				firstGood = i
			}
			lastGood = i
		}
	}
	if firstGood < 0 {
		return
	}
	for i := 0; i < firstGood; i++ {
		series[i] = series[firstGood]
	}
	for i := lastGood + 1; i < len(series); i++ {
		series[i] = series[lastGood]
	}

	i := firstGood
	for i < lastGood {
		if !bad[i+1] {
			i++
			continue
		}
		// Run of flagged entries from i+1 to j-1, bracketed by good i and j.
		j := i + 1
		for bad[j] {
			j++
		}
		step := (series[j] - series[i]) / float64(j-i)
		for k := i + 1; k < j; k++ {
			series[k] = series[i] + step*float64(k-i)
		}
		i = j
	}
}

// RunningMean smooths a series with a trailing window of n samples,
// shrinking at the leading edge. Used as the heading filter before beam
// positions are computed.
func RunningMean(series []float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	out := make([]float64, len(series))
	sum := 0.0
	for i, v := range series {
		sum += v
		if i >= n {
			sum -= series[i-n]
		}
		width := i + 1
		if width > n {
			width = n
		}
		out[i] = sum / float64(width)
	}
	return out
}
