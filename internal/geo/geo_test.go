package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseBearing(t *testing.T) {
	assert.InDelta(t, 0, CourseBearing(0, 0, 0, 10), 1e-9)
	assert.InDelta(t, 90, CourseBearing(0, 0, 10, 0), 1e-9)
	assert.InDelta(t, 225, CourseBearing(0, 0, -10, -10), 1e-9)
}

func TestGroundRange(t *testing.T) {
	assert.InDelta(t, 4, GroundRange(5, 3), 1e-12)
	assert.Equal(t, 0.0, GroundRange(2, 3))
	assert.Equal(t, 0.0, GroundRange(3, 3))
}

func TestBeamPosition(t *testing.T) {
	e, n := BeamPosition(10, 90, 100, 200)
	assert.InDelta(t, 110, e, 1e-9)
	assert.InDelta(t, 200, n, 1e-9)

	e, n = BeamPosition(10, 0, 100, 200)
	assert.InDelta(t, 100, e, 1e-9)
	assert.InDelta(t, 210, n, 1e-9)
}

func TestAcrossTrackBearing(t *testing.T) {
	assert.InDelta(t, 90, AcrossTrackBearing(0, true), 1e-12)
	assert.InDelta(t, 270, AcrossTrackBearing(0, false), 1e-12)
	assert.InDelta(t, 45, AcrossTrackBearing(315, true), 1e-12)
}

func TestBeamPositionRoundTripWithGroundRange(t *testing.T) {
	// A 5 m slant return at 3 m depth lands 4 m abeam.
	dist := GroundRange(5, 3)
	e, n := BeamPosition(dist, AcrossTrackBearing(0, true), 0, 0)
	assert.InDelta(t, 4, e, 1e-9)
	assert.InDelta(t, 0, math.Abs(n), 1e-9)
}
