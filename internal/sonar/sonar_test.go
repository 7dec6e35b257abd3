package sonar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScanMatrixRejectsBadShapes(t *testing.T) {
	for _, shape := range [][2]int{{0, 5}, {5, 0}, {-1, 5}, {5, -1}, {0, 0}} {
		_, err := NewScanMatrix(shape[0], shape[1])
		assert.Error(t, err, "shape %v", shape)
	}
}

func TestNewScanMatrixInitialState(t *testing.T) {
	m, err := NewScanMatrix(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, m.MissingCount())
	for r := 0; r < 3; r++ {
		assert.Equal(t, BedPickUndetected, m.Meta[r].BedPickBin)
	}
}

func TestScanMatrixRowAliases(t *testing.T) {
	m, err := NewScanMatrix(2, 3)
	require.NoError(t, err)
	m.Row(1)[2] = 0.75
	assert.Equal(t, 0.75, m.At(1, 2))
}

func TestScanMatrixCloneIsDeep(t *testing.T) {
	m, err := NewScanMatrix(2, 2)
	require.NoError(t, err)
	m.Set(0, 0, 0.5)
	m.Meta[0].BedPickBin = 1

	c := m.Clone()
	c.Set(0, 0, 0.9)
	c.Meta[0].BedPickBin = 0

	assert.Equal(t, 0.5, m.At(0, 0))
	assert.Equal(t, 1, m.Meta[0].BedPickBin)
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "port", BeamPort.String())
	assert.Equal(t, "starboard", BeamStarboard.String())
	assert.Equal(t, "down-low", BeamDownLow.String())
	assert.Equal(t, "down-high", BeamDownHigh.String())
	assert.Equal(t, "unknown", Channel(9).String())
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.C = 0
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.NumClasses = 1
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.Win = 0
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.DraftM = -0.1
	assert.Error(t, bad.Validate())
}
