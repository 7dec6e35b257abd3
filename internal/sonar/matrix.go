package sonar

import (
	"fmt"
	"math"
)

// Missing marks a scan cell with no usable sample. Short pings are padded
// with Missing so every row of a ScanMatrix has the same column count.
var Missing = math.NaN()

// BedPickUndetected is stored as a row's bed-pick bin when no sustained
// bed return was found. It never aborts a run.
const BedPickUndetected = -1

// IsMissing reports whether a cell value is the Missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// RowMeta carries the per-row (per-ping) metadata of a ScanMatrix.
type RowMeta struct {
	Ping       NavigatedPing
	BedPickBin int
}

// ScanMatrix is a row-major grid of backscatter intensities in [0,1], one
// row per ping, one column per range bin. Cells may hold Missing. Rows is
// the ping count, Cols the uniform bin count.
type ScanMatrix struct {
	Rows, Cols int
	Cells      []float64
	Meta       []RowMeta
	Channel    Channel
}

// NewScanMatrix allocates a rows-by-cols matrix with every cell set to
// Missing and every bed pick set to BedPickUndetected. Non-positive shapes
// are rejected.
func NewScanMatrix(rows, cols int) (*ScanMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("scan matrix shape must be positive, got %dx%d", rows, cols)
	}
	m := &ScanMatrix{
		Rows:  rows,
		Cols:  cols,
		Cells: make([]float64, rows*cols),
		Meta:  make([]RowMeta, rows),
	}
	for i := range m.Cells {
		m.Cells[i] = Missing
	}
	for i := range m.Meta {
		m.Meta[i].BedPickBin = BedPickUndetected
	}
	return m, nil
}

// At returns the cell at (row, col).
func (m *ScanMatrix) At(row, col int) float64 { return m.Cells[row*m.Cols+col] }

// Set stores v at (row, col).
func (m *ScanMatrix) Set(row, col int, v float64) { m.Cells[row*m.Cols+col] = v }

// Row returns the backing slice for one row. The slice aliases the matrix.
func (m *ScanMatrix) Row(row int) []float64 {
	return m.Cells[row*m.Cols : (row+1)*m.Cols]
}

// Clone returns a deep copy of the matrix.
func (m *ScanMatrix) Clone() *ScanMatrix {
	out := &ScanMatrix{
		Rows:    m.Rows,
		Cols:    m.Cols,
		Cells:   make([]float64, len(m.Cells)),
		Meta:    make([]RowMeta, len(m.Meta)),
		Channel: m.Channel,
	}
	copy(out.Cells, m.Cells)
	copy(out.Meta, m.Meta)
	return out
}

// MissingCount returns the number of Missing cells.
func (m *ScanMatrix) MissingCount() int {
	n := 0
	for _, v := range m.Cells {
		if IsMissing(v) {
			n++
		}
	}
	return n
}
