package export

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
	"github.com/riverbed-data/sidescan.report/internal/sonar/texture"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func testScan(t *testing.T) *sonar.ScanMatrix {
	t.Helper()
	m, err := sonar.NewScanMatrix(3, 4)
	require.NoError(t, err)
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, float64(r*4+c)/12)
		}
		m.Meta[r].Ping = sonar.NavigatedPing{
			PingRecord: sonar.PingRecord{HeadingDeg: 0, DepthM: 0, PulseLenUS: 100},
			Easting:    1000 + float64(r),
			Northing:   2000,
		}
	}
	m.Channel = sonar.BeamStarboard
	return m
}

func TestWritePointCloud(t *testing.T) {
	m := testScan(t)
	m.Set(0, 1, sonar.Missing)
	path := filepath.Join(t.TempDir(), "cloud.asc")

	p := sonar.DefaultParams()
	require.NoError(t, WritePointCloud(path, m, p))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 11) // 12 cells minus one missing

	fields := strings.Fields(lines[0])
	require.Len(t, fields, 3)
	assert.Contains(t, fields[0], "1000.")
	assert.Contains(t, fields[1], "2000.")
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestWritePointCloudCourseBearing(t *testing.T) {
	m, err := sonar.NewScanMatrix(3, 3)
	require.NoError(t, err)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, 0.5)
		}
		// The compass says east but the track runs due north.
		m.Meta[r].Ping = sonar.NavigatedPing{
			PingRecord: sonar.PingRecord{HeadingDeg: 90, PulseLenUS: 10000},
			Easting:    1000,
			Northing:   2000 + 10*float64(r),
		}
	}
	m.Channel = sonar.BeamStarboard

	p := sonar.DefaultParams()
	p.CalcBearing = true
	path := filepath.Join(t.TempDir(), "cog.asc")
	require.NoError(t, WritePointCloud(path, m, p))

	maxEasting := 0.0
	for _, line := range readLines(t, path) {
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		e, err := strconv.ParseFloat(fields[0], 64)
		require.NoError(t, err)
		n, err := strconv.ParseFloat(fields[1], 64)
		require.NoError(t, err)
		// Starboard of a northbound course lands due east of the track;
		// the recorded heading would have pushed points south.
		assert.GreaterOrEqual(t, e, 1000.0)
		assert.InDelta(t, 0, math.Mod(n-2000, 10), 1e-6)
		if e > maxEasting {
			maxEasting = e
		}
	}
	assert.Greater(t, maxEasting, 1005.0)
}

func TestWritePointCloudFilteredBearing(t *testing.T) {
	build := func() *sonar.ScanMatrix {
		m, err := sonar.NewScanMatrix(4, 2)
		require.NoError(t, err)
		headings := []float64{0, 0, 80, 0}
		for r := 0; r < 4; r++ {
			for c := 0; c < 2; c++ {
				m.Set(r, c, 0.5)
			}
			m.Meta[r].Ping = sonar.NavigatedPing{
				PingRecord: sonar.PingRecord{HeadingDeg: headings[r], PulseLenUS: 10000},
				Easting:    1000,
				Northing:   2000 + float64(r),
			}
		}
		m.Channel = sonar.BeamStarboard
		return m
	}

	p := sonar.DefaultParams()
	rawPath := filepath.Join(t.TempDir(), "raw.asc")
	require.NoError(t, WritePointCloud(rawPath, build(), p))

	p.FiltBearing = true
	filtPath := filepath.Join(t.TempDir(), "filtered.asc")
	require.NoError(t, WritePointCloud(filtPath, build(), p))

	rawLines := readLines(t, rawPath)
	filtLines := readLines(t, filtPath)
	require.Len(t, filtLines, len(rawLines))

	// The running mean leaves the steady leading rows alone and damps
	// the heading spike at row 2. Two lines per row; line 5 is the
	// non-zero-range bin of the spiked row.
	assert.Equal(t, rawLines[:4], filtLines[:4])
	assert.NotEqual(t, rawLines[5], filtLines[5])
}

func TestSaveEchogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echogram.png")
	require.NoError(t, SaveEchogram(path, "test scan", testScan(t)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSaveClassMap(t *testing.T) {
	windows := []texture.Window{
		{Row: 0, Col: 0, Size: 8, Scale: 3, Class: 0},
		{Row: 0, Col: 8, Size: 8, Scale: 12, Class: 1},
		{Row: 8, Col: 0, Size: 8, Scale: 3, Class: 0},
	}
	path := filepath.Join(t.TempDir(), "classes.png")
	require.NoError(t, SaveClassMap(path, "texture classes", windows, 2))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
