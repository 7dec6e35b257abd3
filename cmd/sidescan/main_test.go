package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverbed-data/sidescan.report/internal/config"
	"github.com/riverbed-data/sidescan.report/internal/monitoring"
	"github.com/riverbed-data/sidescan.report/internal/sonar"
	"github.com/riverbed-data/sidescan.report/internal/sonar/pipeline"
	"github.com/riverbed-data/sidescan.report/internal/sonar/surveydb"
	"github.com/riverbed-data/sidescan.report/internal/sonar/texture"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func TestSoundSpeedFromHeader(t *testing.T) {
	speed := 1480.0
	withC := &config.RunConfig{C: &speed}
	withoutC := &config.RunConfig{}

	assert.True(t, soundSpeedFromHeader(false, nil))
	assert.True(t, soundSpeedFromHeader(false, withoutC))
	assert.False(t, soundSpeedFromHeader(false, withC))
	assert.False(t, soundSpeedFromHeader(true, nil))
	assert.False(t, soundSpeedFromHeader(true, withC))
}

func TestPrintRuns(t *testing.T) {
	db, err := surveydb.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	p := sonar.DefaultParams()
	p.Notes = "shakedown"
	res := &pipeline.Result{
		Channels: []pipeline.ChannelResult{{
			Channel: sonar.BeamPort,
			Windows: []texture.Window{
				{Row: 0, Col: 0, Size: 8, Class: 0},
				{Row: 0, Col: 8, Size: 8, Class: 1},
				{Row: 8, Col: 0, Size: 8, Class: 1},
			},
		}},
	}
	runID, err := db.StoreRun("survey.hdr", p, res)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, db, 10))
	out := buf.String()
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "shakedown")
	assert.Contains(t, out, "port")
	assert.Contains(t, out, "class 0: 1")
	assert.Contains(t, out, "class 1: 2")
}

func TestPrintRunsEmpty(t *testing.T) {
	db, err := surveydb.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, db, 5))
	assert.Contains(t, buf.String(), "no stored runs")
}
