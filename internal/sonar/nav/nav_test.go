package nav

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func ping(tms uint32, fix *sonar.Fix, heading, speed float64) sonar.PingRecord {
	rec := sonar.PingRecord{
		TimestampMillis: tms,
		HeadingDeg:      heading,
		SpeedMps:        speed,
	}
	if fix != nil {
		rec.Fix = *fix
	}
	return rec
}

func fix(e, n float64) *sonar.Fix {
	return &sonar.Fix{Easting: e, Northing: n, Valid: true}
}

func TestResolveInterpolatesBetweenAnchors(t *testing.T) {
	records := []sonar.PingRecord{
		ping(0, fix(100, 200), 0, 0),
		ping(1000, nil, 0, 0),
		ping(3000, nil, 0, 0),
		ping(4000, fix(104, 208), 0, 0),
	}

	got, err := Resolve(records)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, 100.0, got[0].Easting)
	assert.False(t, got[0].Interpolated)

	assert.InDelta(t, 101.0, got[1].Easting, 1e-9)
	assert.InDelta(t, 202.0, got[1].Northing, 1e-9)
	assert.True(t, got[1].Interpolated)

	assert.InDelta(t, 103.0, got[2].Easting, 1e-9)
	assert.InDelta(t, 206.0, got[2].Northing, 1e-9)

	assert.Equal(t, 104.0, got[3].Easting)
	assert.Equal(t, 208.0, got[3].Northing)
}

func TestResolveExtrapolatesLeadingAndTrailing(t *testing.T) {
	// Single anchor heading due east at 2 m/s. Earlier pings fall behind
	// it along the course line, later pings run ahead of it.
	records := []sonar.PingRecord{
		ping(0, nil, 0, 0),
		ping(2000, fix(500, 600), 90, 2),
		ping(3000, nil, 0, 0),
	}

	got, err := Resolve(records)
	require.NoError(t, err)

	assert.InDelta(t, 496.0, got[0].Easting, 1e-9)
	assert.InDelta(t, 600.0, got[0].Northing, 1e-9)
	assert.True(t, got[0].Interpolated)

	assert.InDelta(t, 502.0, got[2].Easting, 1e-9)
	assert.InDelta(t, 600.0, got[2].Northing, 1e-9)
	assert.True(t, got[2].Interpolated)
}

func TestResolveNoFix(t *testing.T) {
	records := []sonar.PingRecord{
		ping(0, nil, 0, 0),
		ping(1000, nil, 0, 0),
	}
	_, err := Resolve(records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFixAvailable))
}

func TestResolveEmpty(t *testing.T) {
	got, err := Resolve(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveAlongTrack(t *testing.T) {
	records := []sonar.PingRecord{
		ping(0, fix(0, 0), 0, 0),
		ping(1000, fix(3, 4), 0, 0),
		ping(2000, fix(6, 8), 0, 0),
	}
	got, err := Resolve(records)
	require.NoError(t, err)

	assert.Equal(t, 0.0, got[0].AlongTrackM)
	assert.InDelta(t, 5.0, got[1].AlongTrackM, 1e-9)
	assert.InDelta(t, 10.0, got[2].AlongTrackM, 1e-9)
}

func TestResolveCoincidentAnchorTimes(t *testing.T) {
	records := []sonar.PingRecord{
		ping(1000, fix(10, 10), 0, 0),
		ping(1000, nil, 0, 0),
		ping(1000, fix(20, 20), 0, 0),
	}
	got, err := Resolve(records)
	require.NoError(t, err)

	// Zero time span collapses to the left anchor.
	assert.Equal(t, 10.0, got[1].Easting)
	assert.Equal(t, 10.0, got[1].Northing)
}
