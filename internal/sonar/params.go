package sonar

import "fmt"

// Params holds every tunable of a processing run. A Params value is built
// once (defaults, config file, flags) and passed by value into each stage;
// stages never mutate shared settings.
type Params struct {
	// C is the speed of sound in water, m/s.
	C float64
	// DraftM is the transducer draft below the waterline, metres.
	DraftM float64
	// PulseLenUS overrides the recorded transmit pulse length when > 0.
	PulseLenUS float64
	// FreqKHz overrides the recorded beam frequency when > 0.
	FreqKHz float64

	// Bedpick enables automated bed picking during scan assembly.
	Bedpick bool
	// FlipLR swaps the port/starboard halves of merged scans.
	FlipLR bool
	// Shorepick masks samples beyond the first bed return before texture
	// analysis.
	Shorepick bool
	// DoTwo additionally runs texture analysis on the merged port+starboard
	// scan.
	DoTwo bool
	// CalcBearing orients beam positions by the course over ground derived
	// from successive track positions instead of the recorded compass
	// heading.
	CalcBearing bool
	// FiltBearing smooths the projection bearings with a running mean
	// before beam positions are computed.
	FiltBearing bool

	// MaxW is the rolling-window length, in pings, of the radiometric
	// corrector.
	MaxW int

	// Win and Shift are the texture window size and stride, in cells.
	Win   int
	Shift int
	// Density controls how finely the wavelet scale set is sampled; larger
	// values analyze fewer scales.
	Density int
	// NumClasses is the k of the texture k-means.
	NumClasses int
	// MaxScale caps the largest wavelet scale, in cells.
	MaxScale int
	// Seed seeds the k-means initialization. Zero means seed from the clock,
	// making labellings non-deterministic between runs.
	Seed int64

	// Notes is a free-text annotation stored with the survey run.
	Notes string
}

// DefaultParams returns the parameter set used when nothing is configured.
func DefaultParams() Params {
	return Params{
		C:          1450,
		DraftM:     0.3,
		MaxW:       1000,
		Win:        100,
		Shift:      10,
		Density:    10,
		NumClasses: 4,
		MaxScale:   20,
		Bedpick:    true,
	}
}

// Validate reports the first out-of-range parameter.
func (p Params) Validate() error {
	if p.C <= 0 {
		return fmt.Errorf("sound speed must be positive, got %g", p.C)
	}
	if p.DraftM < 0 {
		return fmt.Errorf("draft must be non-negative, got %g", p.DraftM)
	}
	if p.MaxW <= 0 {
		return fmt.Errorf("radiometric window must be positive, got %d", p.MaxW)
	}
	if p.Win <= 0 {
		return fmt.Errorf("texture window must be positive, got %d", p.Win)
	}
	if p.Shift <= 0 {
		return fmt.Errorf("texture shift must be positive, got %d", p.Shift)
	}
	if p.Density <= 0 {
		return fmt.Errorf("scale density must be positive, got %d", p.Density)
	}
	if p.NumClasses < 2 {
		return fmt.Errorf("class count must be at least 2, got %d", p.NumClasses)
	}
	if p.MaxScale < 2 {
		return fmt.Errorf("max wavelet scale must be at least 2, got %d", p.MaxScale)
	}
	return nil
}
