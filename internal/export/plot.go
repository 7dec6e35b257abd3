package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/riverbed-data/sidescan.report/internal/sonar"
	"github.com/riverbed-data/sidescan.report/internal/sonar/texture"
)

// scanGrid adapts a ScanMatrix to the plotter's grid interface. Missing
// cells render as zero.
type scanGrid struct {
	m *sonar.ScanMatrix
}

func (g scanGrid) Dims() (int, int) { return g.m.Cols, g.m.Rows }
func (g scanGrid) X(c int) float64  { return float64(c) }
func (g scanGrid) Y(r int) float64  { return float64(r) }

func (g scanGrid) Z(c, r int) float64 {
	v := g.m.At(r, c)
	if sonar.IsMissing(v) {
		return 0
	}
	return v
}

// SaveEchogram renders a scan as a heat map PNG, range bin along X and
// ping index along Y.
func SaveEchogram(path, title string, m *sonar.ScanMatrix) error {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "range bin"
	pl.Y.Label.Text = "ping"

	hm := plotter.NewHeatMap(scanGrid{m}, palette.Heat(32, 1))
	pl.Add(hm)

	if err := pl.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save echogram: %w", err)
	}
	return nil
}

// SaveClassMap renders labelled texture windows as a scatter of window
// centres coloured by class.
func SaveClassMap(path, title string, windows []texture.Window, numClasses int) error {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "range bin"
	pl.Y.Label.Text = "ping"

	colors := palette.Rainbow(max(numClasses, 2), palette.Blue, palette.Red, 1, 1, 1).Colors()
	for class := 0; class < numClasses; class++ {
		var pts plotter.XYs
		for _, w := range windows {
			if w.Class != class {
				continue
			}
			pts = append(pts, plotter.XY{
				X: float64(w.Col) + float64(w.Size)/2,
				Y: float64(w.Row) + float64(w.Size)/2,
			})
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("class %d scatter: %w", class, err)
		}
		sc.GlyphStyle.Color = colors[class%len(colors)]
		sc.GlyphStyle.Radius = vg.Points(3)
		pl.Add(sc)
		pl.Legend.Add(fmt.Sprintf("class %d", class), sc)
	}

	if err := pl.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save class map: %w", err)
	}
	return nil
}
