// Package nav resolves a position for every ping in a channel. Pings with
// a valid receiver fix act as anchors; pings between anchors interpolate
// linearly in time, and pings before the first or after the last anchor
// are dead-reckoned from that anchor's heading and speed.
package nav

import (
	"errors"
	"math"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// ErrNoFixAvailable is returned when a channel carries no valid fix at
// all, leaving nothing to anchor positions to.
var ErrNoFixAvailable = errors.New("no valid position fix in channel")

// Resolve assigns an easting/northing to every ping and computes the
// cumulative along-track distance. The input order is preserved; records
// are expected in ascending timestamp order as the decoder emits them.
func Resolve(records []sonar.PingRecord) ([]sonar.NavigatedPing, error) {
	if len(records) == 0 {
		return nil, nil
	}

	anchors := anchorIndices(records)
	if len(anchors) == 0 {
		return nil, ErrNoFixAvailable
	}

	out := make([]sonar.NavigatedPing, len(records))
	for i, rec := range records {
		out[i].PingRecord = rec
	}

	for _, ai := range anchors {
		out[ai].Easting = records[ai].Fix.Easting
		out[ai].Northing = records[ai].Fix.Northing
	}

	// Leading run: dead-reckon backwards from the first anchor using its
	// own heading and speed.
	first := anchors[0]
	for i := first - 1; i >= 0; i-- {
		dt := dtSeconds(records[i].TimestampMillis, records[first].TimestampMillis)
		de, dn := courseVector(records[first].HeadingDeg, records[first].SpeedMps)
		out[i].Easting = out[first].Easting - de*dt
		out[i].Northing = out[first].Northing - dn*dt
		out[i].Interpolated = true
	}

	// Interior runs: linear interpolation in time between bracketing
	// anchors. Coincident anchor timestamps collapse to the left anchor.
	for a := 0; a+1 < len(anchors); a++ {
		lo, hi := anchors[a], anchors[a+1]
		span := dtSeconds(records[lo].TimestampMillis, records[hi].TimestampMillis)
		for i := lo + 1; i < hi; i++ {
			var frac float64
			if span > 0 {
				frac = dtSeconds(records[lo].TimestampMillis, records[i].TimestampMillis) / span
			}
			out[i].Easting = out[lo].Easting + frac*(out[hi].Easting-out[lo].Easting)
			out[i].Northing = out[lo].Northing + frac*(out[hi].Northing-out[lo].Northing)
			out[i].Interpolated = true
		}
	}

	// Trailing run: dead-reckon forwards from the last anchor.
	last := anchors[len(anchors)-1]
	for i := last + 1; i < len(records); i++ {
		dt := dtSeconds(records[last].TimestampMillis, records[i].TimestampMillis)
		de, dn := courseVector(records[last].HeadingDeg, records[last].SpeedMps)
		out[i].Easting = out[last].Easting + de*dt
		out[i].Northing = out[last].Northing + dn*dt
		out[i].Interpolated = true
	}

	accumulateTrack(out)

	if n := len(records) - len(anchors); n > 0 {
		monitoring.Logf("nav: channel %s: %d of %d pings positioned without a fix",
			records[0].Channel, n, len(records))
	}
	return out, nil
}

func anchorIndices(records []sonar.PingRecord) []int {
	var idx []int
	for i, rec := range records {
		if rec.Fix.Valid {
			idx = append(idx, i)
		}
	}
	return idx
}

// dtSeconds returns the elapsed seconds from a to b on the recorder's
// millisecond clock.
func dtSeconds(a, b uint32) float64 {
	return (float64(b) - float64(a)) / 1000
}

// courseVector converts a compass heading and speed into easting and
// northing rates. Heading 0 is grid north, increasing clockwise.
func courseVector(headingDeg, speedMps float64) (de, dn float64) {
	rad := headingDeg * math.Pi / 180
	return speedMps * math.Sin(rad), speedMps * math.Cos(rad)
}

func accumulateTrack(pings []sonar.NavigatedPing) {
	for i := 1; i < len(pings); i++ {
		de := pings[i].Easting - pings[i-1].Easting
		dn := pings[i].Northing - pings[i-1].Northing
		pings[i].AlongTrackM = pings[i-1].AlongTrackM + math.Hypot(de, dn)
	}
}
