// Package export writes processed survey products to disk: ASCII
// point clouds of georeferenced intensities and PNG renderings of
// echograms and texture class maps.
package export

import (
	"bufio"
	"fmt"
	"os"

	"github.com/riverbed-data/sidescan.report/internal/geo"
	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
	"github.com/riverbed-data/sidescan.report/internal/sonar/scan"
)

// headingFilterDivisor sets the bearing running-mean window as a
// fraction of the track length.
const headingFilterDivisor = 100

// WritePointCloud writes one "easting northing intensity" line per valid
// cell of a scan, placing each range bin abeam of its ping's track
// position. Port channels project to the port side, starboard and
// downward channels to starboard. The projection bearing follows the
// recorded heading unless Params redirects it to the course over ground
// or filters it. Missing cells are skipped.
func WritePointCloud(path string, m *sonar.ScanMatrix, p sonar.Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create point cloud file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	starboard := m.Channel != sonar.BeamPort
	bearings := trackBearings(m, p)
	written := 0
	for r := 0; r < m.Rows; r++ {
		ping := m.Meta[r].Ping
		bearing := geo.AcrossTrackBearing(bearings[r], starboard)
		for c := 0; c < m.Cols; c++ {
			v := m.At(r, c)
			if sonar.IsMissing(v) {
				continue
			}
			slant := scan.BinRange(c, ping.PingRecord, p)
			dist := geo.GroundRange(slant, ping.DepthM)
			e, n := geo.BeamPosition(dist, bearing, ping.Easting, ping.Northing)
			if _, err := fmt.Fprintf(w, "%8.6f %8.6f %8.6f\n", e, n, v); err != nil {
				return fmt.Errorf("write point cloud: %w", err)
			}
			written++
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush point cloud: %w", err)
	}
	monitoring.Logf("export: %s: %d points", path, written)
	return nil
}

// trackBearings returns the per-ping bearing that orients the
// across-track projection. CalcBearing replaces the recorded compass
// heading with the point-to-point course over ground; the last ping
// reuses the course of its predecessor. FiltBearing then smooths the
// series with a running mean.
func trackBearings(m *sonar.ScanMatrix, p sonar.Params) []float64 {
	bearings := make([]float64, m.Rows)
	for r := range bearings {
		bearings[r] = m.Meta[r].Ping.HeadingDeg
	}
	if p.CalcBearing && m.Rows > 1 {
		for r := 0; r < m.Rows-1; r++ {
			a := m.Meta[r].Ping
			b := m.Meta[r+1].Ping
			bearings[r] = geo.CourseBearing(a.Easting, a.Northing, b.Easting, b.Northing)
		}
		bearings[m.Rows-1] = bearings[m.Rows-2]
	}
	if p.FiltBearing {
		n := m.Rows / headingFilterDivisor
		if n < 2 {
			n = 2
		}
		bearings = scan.RunningMean(bearings, n)
	}
	return bearings
}
