// Package scan builds navigation-referenced intensity matrices from
// decoded pings and locates the sediment-water interface in each row.
package scan

import (
	"fmt"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// intensityScale maps the recorder's 8-bit samples onto [0,1].
const intensityScale = 255.0

// Assemble builds a ScanMatrix for one channel. Rows follow ping order,
// columns are range bins. Short pings are padded with the Missing
// sentinel so all rows share the widest column count. When p.Bedpick is
// set, each row's bed-pick bin is detected as it is filled in.
func Assemble(pings []sonar.NavigatedPing, p sonar.Params) (*sonar.ScanMatrix, error) {
	if len(pings) == 0 {
		return nil, fmt.Errorf("no pings to assemble")
	}

	cols := 0
	for _, ping := range pings {
		if len(ping.Samples) > cols {
			cols = len(ping.Samples)
		}
	}
	if cols == 0 {
		return nil, fmt.Errorf("channel %s: all %d pings carry empty payloads", pings[0].Channel, len(pings))
	}

	m, err := sonar.NewScanMatrix(len(pings), cols)
	if err != nil {
		return nil, err
	}
	m.Channel = pings[0].Channel

	padded := 0
	for r, ping := range pings {
		row := m.Row(r)
		for c, v := range ping.Samples {
			row[c] = float64(v) / intensityScale
		}
		if len(ping.Samples) < cols {
			padded++
		}
		m.Meta[r].Ping = ping
		if p.Bedpick {
			m.Meta[r].BedPickBin = PickBed(row)
		}
	}
	if padded > 0 {
		monitoring.Logf("scan: channel %s: %d of %d pings padded to %d bins",
			m.Channel, padded, m.Rows, cols)
	}
	return m, nil
}

// BinRange returns the slant range, in metres, of one range bin of a
// ping. The per-bin sample interval is the transmit pulse length;
// p.PulseLenUS overrides the recorded value when positive. The transducer
// draft is subtracted and the result clamped at zero.
func BinRange(bin int, ping sonar.PingRecord, p sonar.Params) float64 {
	pulseUS := float64(ping.PulseLenUS)
	if p.PulseLenUS > 0 {
		pulseUS = p.PulseLenUS
	}
	r := p.C*(float64(bin)*pulseUS*1e-6)/2 - p.DraftM
	if r < 0 {
		return 0
	}
	return r
}

// MergePair joins mirrored port and starboard matrices column-wise around
// the nadir. The port half is range-reversed so the nadir sits at the
// seam; flipLR swaps which side occupies the left half. Row counts may
// differ by a few pings at the end of a recording, in which case the
// longer matrix is trimmed. Row metadata follows the port channel; bed
// picks are not carried over because merged column indices no longer
// count range from the transducer.
func MergePair(port, starboard *sonar.ScanMatrix, flipLR bool) (*sonar.ScanMatrix, error) {
	rows := port.Rows
	if starboard.Rows < rows {
		rows = starboard.Rows
	}
	if rows == 0 {
		return nil, fmt.Errorf("merge: no overlapping rows")
	}
	if port.Rows != starboard.Rows {
		monitoring.Logf("scan: merge trims %d/%d rows to %d", port.Rows, starboard.Rows, rows)
	}

	m, err := sonar.NewScanMatrix(rows, port.Cols+starboard.Cols)
	if err != nil {
		return nil, err
	}
	m.Channel = port.Channel

	left, right := port, starboard
	if flipLR {
		left, right = starboard, port
	}
	for r := 0; r < rows; r++ {
		row := m.Row(r)
		// Left half reversed: far range at the outer edge, nadir at the seam.
		for c := 0; c < left.Cols; c++ {
			row[c] = left.At(r, left.Cols-1-c)
		}
		copy(row[left.Cols:], right.Row(r))
		m.Meta[r].Ping = port.Meta[r].Ping
	}
	return m, nil
}

// MaskWaterColumn blanks the bins between the transducer and the bed
// return, leaving only bed imagery for texture analysis. Rows without a
// detected pick are left whole. Masked cells are set to zero, not
// Missing, so the mask survives infilling.
func MaskWaterColumn(m *sonar.ScanMatrix) {
	for r := 0; r < m.Rows; r++ {
		pick := m.Meta[r].BedPickBin
		if pick == sonar.BedPickUndetected {
			continue
		}
		row := m.Row(r)
		for c := 0; c < pick && c < m.Cols; c++ {
			row[c] = 0
		}
	}
}
