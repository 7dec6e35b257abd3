// Package pipeline sequences the per-channel processing stages: decode,
// navigation, assembly, the correction chain, and texture analysis.
// Channels are processed independently and in parallel; a failure in one
// channel never aborts the others.
package pipeline

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
	"github.com/riverbed-data/sidescan.report/internal/sonar/correct"
	"github.com/riverbed-data/sidescan.report/internal/sonar/decode"
	"github.com/riverbed-data/sidescan.report/internal/sonar/nav"
	"github.com/riverbed-data/sidescan.report/internal/sonar/scan"
	"github.com/riverbed-data/sidescan.report/internal/sonar/texture"
)

const (
	// toneMapOrder is the Butterworth order of the tone mapper's
	// high-pass weighting.
	toneMapOrder = 2

	// noiseMaxAttenuation bounds how much of any frequency bin the
	// spectral noise remover may take away.
	noiseMaxAttenuation = 0.95

	// spikeStdDevs is the clamp width for depth and heading spike
	// removal before assembly.
	spikeStdDevs = 3
)

// ChannelResult is the outcome of one channel's pipeline. When Err is
// set the later fields hold whatever stages completed before the
// failure. Truncated input is not an error: the decoded prefix is
// processed and Truncated records the fact.
type ChannelResult struct {
	Channel       sonar.Channel
	Pings         []sonar.NavigatedPing
	Raw           *sonar.ScanMatrix
	Corrected     *sonar.ScanMatrix
	Windows       []texture.Window
	FallbackFills int
	Truncated     bool
	Err           error
}

// Result is a whole survey run.
type Result struct {
	Header   sonar.SurveyHeader
	Channels []ChannelResult
	// Merged holds the texture pass over the joined port+starboard scan
	// when Params.DoTwo is set and both sides processed cleanly.
	Merged *ChannelResult
}

// Run processes a survey already read into memory: the header file and
// one record stream per channel. Channels fan out across CPUs with the
// clustering and merge steps waiting on all of them.
func Run(header []byte, streams map[sonar.Channel][]byte, p sonar.Params) (*Result, error) {
	hdr, err := decode.DecodeHeader(header)
	if err != nil {
		return nil, fmt.Errorf("survey header: %w", err)
	}
	if len(streams) == 0 {
		return nil, fmt.Errorf("no channel streams supplied")
	}

	// The header's sound-speed calibration applies unless overridden.
	if p.C <= 0 && hdr.SoundSpeedMps > 0 {
		p.C = float64(hdr.SoundSpeedMps)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Header: hdr, Channels: make([]ChannelResult, 0, len(streams))}
	for _, ch := range orderedChannels(streams) {
		res.Channels = append(res.Channels, ChannelResult{Channel: ch})
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for i := range res.Channels {
		wg.Add(1)
		sem <- struct{}{}
		go func(cr *ChannelResult) {
			defer wg.Done()
			defer func() { <-sem }()
			runChannel(cr, streams[cr.Channel], p)
		}(&res.Channels[i])
	}
	wg.Wait()

	if p.DoTwo {
		res.Merged = mergedPass(res, p)
	}
	return res, nil
}

// runChannel drives one channel start to finish, recording how far it got.
func runChannel(cr *ChannelResult, stream []byte, p sonar.Params) {
	records, err := decode.DecodeStream(stream, cr.Channel)
	if err != nil {
		// Truncation keeps the decoded prefix; anything else is fatal
		// for the channel.
		cr.Truncated = true
		monitoring.Logf("pipeline: channel %s: %v", cr.Channel, err)
	}
	if len(records) == 0 {
		cr.Err = fmt.Errorf("channel %s: no decodable records", cr.Channel)
		return
	}

	applyOverrides(records, p)
	smoothTraces(records)

	cr.Pings, err = nav.Resolve(records)
	if err != nil {
		cr.Err = fmt.Errorf("channel %s: %w", cr.Channel, err)
		return
	}

	cr.Raw, err = scan.Assemble(cr.Pings, p)
	if err != nil {
		cr.Err = fmt.Errorf("channel %s: %w", cr.Channel, err)
		return
	}

	cr.Corrected, cr.FallbackFills = correctScan(cr.Raw, p)

	if p.Shorepick {
		scan.MaskWaterColumn(cr.Corrected)
	}

	cr.Windows, err = texture.Analyze(cr.Corrected, p)
	if err != nil {
		cr.Err = fmt.Errorf("channel %s: texture: %w", cr.Channel, err)
	}
}

// correctScan applies the correction chain in its fixed order:
// radiometric normalization, tone mapping, rescale, infill, spectral
// noise removal. It returns the corrected scan and the infiller's
// fallback fill count.
func correctScan(raw *sonar.ScanMatrix, p sonar.Params) (*sonar.ScanMatrix, int) {
	m := correct.Radiometric(raw, p.MaxW)

	wavelength := float64(minInt(m.Rows, m.Cols)) / 2
	if wavelength < 2 {
		wavelength = 2
	}
	m = correct.ToneMap(m, wavelength, toneMapOrder)
	correct.Rescale01(m)

	m, fallback := correct.Infill(m)
	if fallback > 0 {
		monitoring.Logf("pipeline: channel %s: %d cells infilled with the global mean", m.Channel, fallback)
	}

	m = correct.RemoveSpectralNoise(m, noiseMaxAttenuation)
	correct.Rescale01(m)
	return m, fallback
}

// applyOverrides replaces recorded frequency and pulse length with the
// configured calibration values when set, so every downstream consumer
// sees the corrected acquisition parameters.
func applyOverrides(records []sonar.PingRecord, p sonar.Params) {
	for i := range records {
		if p.FreqKHz > 0 {
			records[i].FreqKHz = uint16(p.FreqKHz)
		}
		if p.PulseLenUS > 0 {
			records[i].PulseLenUS = uint16(p.PulseLenUS)
		}
	}
}

// smoothTraces de-spikes the depth and heading series in place before
// they feed navigation and assembly.
func smoothTraces(records []sonar.PingRecord) {
	depth := make([]float64, len(records))
	heading := make([]float64, len(records))
	for i, r := range records {
		depth[i] = r.DepthM
		heading[i] = r.HeadingDeg
	}
	scan.RemoveSpikes(depth, spikeStdDevs)
	scan.RemoveSpikes(heading, spikeStdDevs)
	for i := range records {
		records[i].DepthM = depth[i]
		records[i].HeadingDeg = heading[i]
	}
}

// mergedPass joins the port and starboard corrected scans and runs the
// texture analyzer over the pair, when both sides are available.
func mergedPass(res *Result, p sonar.Params) *ChannelResult {
	var port, starboard *sonar.ScanMatrix
	for i := range res.Channels {
		cr := &res.Channels[i]
		if cr.Corrected == nil {
			continue
		}
		switch cr.Channel {
		case sonar.BeamPort:
			port = cr.Corrected
		case sonar.BeamStarboard:
			starboard = cr.Corrected
		}
	}
	if port == nil || starboard == nil {
		monitoring.Logf("pipeline: merged pass skipped: need both port and starboard scans")
		return nil
	}

	merged := &ChannelResult{Channel: sonar.BeamPort}
	m, err := scan.MergePair(port, starboard, p.FlipLR)
	if err != nil {
		merged.Err = fmt.Errorf("merged pass: %w", err)
		return merged
	}
	merged.Corrected = m
	merged.Windows, err = texture.Analyze(m, p)
	if err != nil {
		merged.Err = fmt.Errorf("merged pass: texture: %w", err)
	}
	return merged
}

// orderedChannels returns the stream keys in beam order so results are
// stable run to run.
func orderedChannels(streams map[sonar.Channel][]byte) []sonar.Channel {
	order := []sonar.Channel{sonar.BeamDownLow, sonar.BeamDownHigh, sonar.BeamPort, sonar.BeamStarboard}
	var out []sonar.Channel
	for _, ch := range order {
		if _, ok := streams[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
