package texture

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// Window is one analyzed sub-block of a scan: its origin and size, the
// characteristic wavelet scale of its texture, and the class label
// assigned by clustering. Windows are immutable once labelled.
type Window struct {
	Row, Col      int
	Size          int
	Scale         float64
	MeanIntensity float64
	Class         int
}

// Analyze partitions a corrected scan into windows of p.Win cells with
// stride p.Shift, computes each window's characteristic wavelet scale
// and mean intensity, and k-means clusters the descriptors into
// p.NumClasses classes. Per-window wavelet work runs on all CPUs; the
// clustering step waits for every descriptor. The scan must be free of
// missing cells.
func Analyze(m *sonar.ScanMatrix, p sonar.Params) ([]Window, error) {
	if m.Rows < p.Win || m.Cols < p.Win {
		return nil, fmt.Errorf("scan %dx%d smaller than texture window %d", m.Rows, m.Cols, p.Win)
	}

	var windows []Window
	for r := 0; r+p.Win <= m.Rows; r += p.Shift {
		for c := 0; c+p.Win <= m.Cols; c += p.Shift {
			windows = append(windows, Window{Row: r, Col: c, Size: p.Win})
		}
	}

	scales := scaleSet(p.MaxScale, p.Density)

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for i := range windows {
		wg.Add(1)
		sem <- struct{}{}
		go func(w *Window) {
			defer wg.Done()
			defer func() { <-sem }()
			describeWindow(m, w, scales)
		}(&windows[i])
	}
	wg.Wait()

	// Descriptors: characteristic scale plus mean intensity, both
	// standardized so neither dominates the distance metric.
	points := make([][]float64, len(windows))
	for i, w := range windows {
		points[i] = []float64{w.Scale, w.MeanIntensity}
	}
	standardize(points)

	labels := kMeans(points, p.NumClasses, newRNG(p.Seed))
	for i := range windows {
		windows[i].Class = labels[i]
	}

	monitoring.Logf("texture: %d windows over %d scales into %d classes",
		len(windows), len(scales), p.NumClasses)
	return windows, nil
}

// describeWindow fills in a window's characteristic scale and mean
// intensity. The wavelet power of each window row is averaged before the
// peak scale is picked, so the descriptor reflects across-track texture.
func describeWindow(m *sonar.ScanMatrix, w *Window, scales []float64) {
	power := make([]float64, len(scales))
	row := make([]float64, w.Size)
	sum := 0.0
	for r := w.Row; r < w.Row+w.Size; r++ {
		for c := 0; c < w.Size; c++ {
			row[c] = m.At(r, w.Col+c)
			sum += row[c]
		}
		for si, pw := range cwtPower(row, scales) {
			power[si] += pw
		}
	}
	w.Scale = characteristicScale(scales, power)
	w.MeanIntensity = sum / float64(w.Size*w.Size)
}

// standardize rescales each feature column to zero mean, unit variance.
// Constant columns are left centred.
func standardize(points [][]float64) {
	if len(points) == 0 {
		return
	}
	dims := len(points[0])
	for d := 0; d < dims; d++ {
		mean := 0.0
		for _, p := range points {
			mean += p[d]
		}
		mean /= float64(len(points))

		variance := 0.0
		for _, p := range points {
			dv := p[d] - mean
			variance += dv * dv
		}
		variance /= float64(len(points))

		for _, p := range points {
			p[d] -= mean
			if variance > 0 {
				p[d] /= math.Sqrt(variance)
			}
		}
	}
}
