// Package geo holds the planar geometry used to place sonar returns on
// the ground: compass bearings between track points, slant-to-ground
// range conversion, and across-track beam positioning.
package geo

import "math"

// CourseBearing returns the compass bearing of travel between two
// projected positions, degrees [0,360). Used to derive course over
// ground when the recorded heading is unreliable.
func CourseBearing(e1, n1, e2, n2 float64) float64 {
	deg := math.Atan2(e2-e1, n2-n1) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// GroundRange converts a slant range to a horizontal ground range for a
// transducer depth d below the surface. Slant ranges shorter than the
// depth (returns from within the water column) map to zero.
func GroundRange(slant, depth float64) float64 {
	if slant <= depth {
		return 0
	}
	return math.Sqrt(slant*slant - depth*depth)
}

// BeamPosition projects a ground-range distance at a compass bearing
// from a track point, returning the final easting and northing.
func BeamPosition(dist, bearingDeg, easting, northing float64) (float64, float64) {
	rad := bearingDeg * math.Pi / 180
	return easting + dist*math.Sin(rad), northing + dist*math.Cos(rad)
}

// AcrossTrackBearing returns the bearing perpendicular to a heading:
// starboard side for positive, port for negative.
func AcrossTrackBearing(headingDeg float64, starboard bool) float64 {
	if starboard {
		return math.Mod(headingDeg+90+360, 360)
	}
	return math.Mod(headingDeg-90+360, 360)
}
