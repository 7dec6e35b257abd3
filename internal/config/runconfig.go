// Package config loads run configuration from JSON files. Fields are
// pointer-typed so a partial file only overrides what it names; the
// merged result is an ordinary sonar.Params value.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/riverbed-data/sidescan.report/internal/sonar"
)

// maxFileSize bounds config reads (1MB).
const maxFileSize = 1 * 1024 * 1024

// RunConfig mirrors sonar.Params with optional fields. Omitted fields
// keep their defaults, so partial configs are safe.
type RunConfig struct {
	C           *float64 `json:"c,omitempty"`
	Draft       *float64 `json:"draft,omitempty"`
	PulseLen    *float64 `json:"t,omitempty"`
	Freq        *float64 `json:"f,omitempty"`
	Bedpick     *bool    `json:"bedpick,omitempty"`
	FlipLR      *bool    `json:"flip_lr,omitempty"`
	Shorepick   *bool    `json:"shorepick,omitempty"`
	DoTwo       *bool    `json:"do_two,omitempty"`
	CalcBearing *bool    `json:"calc_bearing,omitempty"`
	FiltBearing *bool    `json:"filt_bearing,omitempty"`
	MaxW        *int     `json:"maxw,omitempty"`
	Win         *int     `json:"win,omitempty"`
	Shift       *int     `json:"shift,omitempty"`
	Density     *int     `json:"density,omitempty"`
	NumClasses  *int     `json:"numclasses,omitempty"`
	MaxScale    *int     `json:"maxscale,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// Load reads a RunConfig from a JSON file, validating the path has a
// .json extension and stays under the size bound.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}
	return cfg, nil
}

// Apply overlays the set fields onto a Params value and validates the
// result.
func (c *RunConfig) Apply(p sonar.Params) (sonar.Params, error) {
	if c.C != nil {
		p.C = *c.C
	}
	if c.Draft != nil {
		p.DraftM = *c.Draft
	}
	if c.PulseLen != nil {
		p.PulseLenUS = *c.PulseLen
	}
	if c.Freq != nil {
		p.FreqKHz = *c.Freq
	}
	if c.Bedpick != nil {
		p.Bedpick = *c.Bedpick
	}
	if c.FlipLR != nil {
		p.FlipLR = *c.FlipLR
	}
	if c.Shorepick != nil {
		p.Shorepick = *c.Shorepick
	}
	if c.DoTwo != nil {
		p.DoTwo = *c.DoTwo
	}
	if c.CalcBearing != nil {
		p.CalcBearing = *c.CalcBearing
	}
	if c.FiltBearing != nil {
		p.FiltBearing = *c.FiltBearing
	}
	if c.MaxW != nil {
		p.MaxW = *c.MaxW
	}
	if c.Win != nil {
		p.Win = *c.Win
	}
	if c.Shift != nil {
		p.Shift = *c.Shift
	}
	if c.Density != nil {
		p.Density = *c.Density
	}
	if c.NumClasses != nil {
		p.NumClasses = *c.NumClasses
	}
	if c.MaxScale != nil {
		p.MaxScale = *c.MaxScale
	}
	if c.Seed != nil {
		p.Seed = *c.Seed
	}
	if c.Notes != nil {
		p.Notes = *c.Notes
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}
