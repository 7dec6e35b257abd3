package scan

import (
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

func navPing(ch sonar.Channel, samples []uint8) sonar.NavigatedPing {
	return sonar.NavigatedPing{
		PingRecord: sonar.PingRecord{Channel: ch, Samples: samples, PulseLenUS: 60},
	}
}

// Four pings by eight bins with a low ramp and a bed step at bin 5.
func bedStepPings() []sonar.NavigatedPing {
	pings := make([]sonar.NavigatedPing, 4)
	for i := range pings {
		samples := make([]uint8, 8)
		for c := 0; c < 5; c++ {
			samples[c] = uint8(10 + 3*c)
		}
		for c := 5; c < 8; c++ {
			samples[c] = uint8(200 + 10*(c-5))
		}
		pings[i] = navPing(sonar.BeamPort, samples)
	}
	return pings
}

func TestAssembleBedStep(t *testing.T) {
	p := sonar.DefaultParams()
	m, err := Assemble(bedStepPings(), p)
	require.NoError(t, err)
	require.Equal(t, 4, m.Rows)
	require.Equal(t, 8, m.Cols)

	for r := 0; r < m.Rows; r++ {
		assert.Equal(t, 5, m.Meta[r].BedPickBin, "row %d", r)
	}
}

func TestAssemblePadsShortPings(t *testing.T) {
	pings := []sonar.NavigatedPing{
		navPing(sonar.BeamStarboard, []uint8{255, 128, 64, 32}),
		navPing(sonar.BeamStarboard, []uint8{255, 128}),
	}
	p := sonar.DefaultParams()
	p.Bedpick = false

	m, err := Assemble(pings, p)
	require.NoError(t, err)
	require.Equal(t, 4, m.Cols)

	assert.InDelta(t, 1.0, m.At(0, 0), 1e-12)
	assert.InDelta(t, 128.0/255, m.At(1, 1), 1e-12)
	assert.True(t, sonar.IsMissing(m.At(1, 2)))
	assert.True(t, sonar.IsMissing(m.At(1, 3)))
	assert.Equal(t, sonar.BedPickUndetected, m.Meta[0].BedPickBin)
}

func TestAssembleEmptyChannel(t *testing.T) {
	_, err := Assemble(nil, sonar.DefaultParams())
	require.Error(t, err)
}

func TestPickBedBounds(t *testing.T) {
	m, err := Assemble(bedStepPings(), sonar.DefaultParams())
	require.NoError(t, err)
	for r := 0; r < m.Rows; r++ {
		pick := m.Meta[r].BedPickBin
		if pick != sonar.BedPickUndetected {
			assert.GreaterOrEqual(t, pick, 0)
			assert.Less(t, pick, m.Cols)
		}
	}
}

func TestPickBedFlatRow(t *testing.T) {
	row := []float64{0.4, 0.4, 0.41, 0.4, 0.4, 0.41, 0.4, 0.4}
	assert.Equal(t, sonar.BedPickUndetected, PickBed(row))
}

func TestPickBedRejectsSpike(t *testing.T) {
	// One isolated hot bin, then a genuine sustained return later.
	row := []float64{0.05, 0.9, 0.05, 0.05, 0.05, 0.85, 0.9, 0.95, 0.9, 0.9}
	assert.Equal(t, 5, PickBed(row))
}

func TestBinRange(t *testing.T) {
	p := sonar.DefaultParams()
	p.C = 1500
	p.DraftM = 0
	ping := sonar.PingRecord{PulseLenUS: 100}

	// bin 10: 1500 * (10 * 100e-6) / 2 = 0.75 m
	assert.InDelta(t, 0.75, BinRange(10, ping, p), 1e-12)

	p.DraftM = 1
	assert.Equal(t, 0.0, BinRange(0, ping, p))
}

func TestMergePair(t *testing.T) {
	port, err := sonar.NewScanMatrix(2, 3)
	require.NoError(t, err)
	star, err := sonar.NewScanMatrix(2, 3)
	require.NoError(t, err)
	for c := 0; c < 3; c++ {
		for r := 0; r < 2; r++ {
			port.Set(r, c, float64(c))        // 0 1 2
			star.Set(r, c, float64(10+c))     // 10 11 12
		}
	}

	m, err := MergePair(port, star, false)
	require.NoError(t, err)
	require.Equal(t, 6, m.Cols)
	// Port reversed on the left, starboard on the right.
	assert.Equal(t, []float64{2, 1, 0, 10, 11, 12}, m.Row(0))

	flipped, err := MergePair(port, star, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 11, 10, 0, 1, 2}, flipped.Row(0))
}

func TestMergePairTrimsRows(t *testing.T) {
	port, _ := sonar.NewScanMatrix(3, 2)
	star, _ := sonar.NewScanMatrix(2, 2)
	m, err := MergePair(port, star, false)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows)
}

func TestMaskWaterColumn(t *testing.T) {
	m, err := sonar.NewScanMatrix(2, 6)
	require.NoError(t, err)
	for r := 0; r < 2; r++ {
		for c := 0; c < 6; c++ {
			m.Set(r, c, 0.5)
		}
	}
	m.Meta[0].BedPickBin = 3
	m.Meta[1].BedPickBin = sonar.BedPickUndetected

	MaskWaterColumn(m)

	assert.Equal(t, []float64{0, 0, 0, 0.5, 0.5, 0.5}, m.Row(0))
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, m.Row(1))
}

func TestRemoveSpikes(t *testing.T) {
	series := []float64{2, 2.1, 2, 9, 2.2, 2.1, 2}
	RemoveSpikes(series, 2)
	assert.InDelta(t, 2.1, series[3], 0.15)
}

func TestRemoveSpikesClean(t *testing.T) {
	series := []float64{2, 2.1, 2.05, 2.1, 2}
	want := append([]float64(nil), series...)
	RemoveSpikes(series, 3)
	assert.Equal(t, want, series)
}

func TestRunningMean(t *testing.T) {
	got := RunningMean([]float64{1, 2, 3, 4, 5}, 3)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 1.5, got[1], 1e-12)
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 3.0, got[3], 1e-12)
	assert.InDelta(t, 4.0, got[4], 1e-12)
}
