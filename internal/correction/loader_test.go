package correction

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bpkupdate/internal/errors"
	"bpkupdate/internal/jme"
)

type loadRecorder struct {
	labels []string
}

func (r *loadRecorder) ObserveLoad(label string, d time.Duration) {
	r.labels = append(r.labels, label)
}

func TestCalibrationPath(t *testing.T) {
	got := CalibrationPath("/data", testJEC, StageL2Relative, LabelAK4CHS)
	assert.Equal(t, filepath.Join("/data", testJEC, testJEC+"_L2Relative_AK4PFchs.txt"), got)
}

func TestLoadCorrector_Complete(t *testing.T) {
	base := t.TempDir()
	writeJEC(t, base, testJEC, LabelAK4CHS, 1.05)
	writeJER(t, base, testJER, LabelAK4CHS)
	rec := &loadRecorder{}
	l := NewLoader(base, nil)
	l.Observer = rec

	c, err := l.LoadCorrector(testJEC, testJER, LabelAK4CHS)
	require.NoError(t, err)

	assert.Equal(t, LabelAK4CHS, c.Label)
	assert.True(t, c.JEC.Present())
	assert.True(t, c.Uncertainty.Present())
	assert.True(t, c.Resolution.Present())
	assert.True(t, c.ScaleFactor.Present())
	assert.Equal(t, []string{LabelAK4CHS}, rec.labels)

	jec, _ := c.JEC.Get()
	fc, ok := jec.(*FactorizedCorrector)
	require.True(t, ok)
	assert.Equal(t, JECStages, fc.Levels())
	assert.InDelta(t, 1.157625, jec.Correction(jme.Input{Pt: 30, Area: 0.5, Rho: 10}), 1e-9)
}

func TestLoadCorrector_EmptyVersions(t *testing.T) {
	l := NewLoader(t.TempDir(), nil)

	c, err := l.LoadCorrector("", "", LabelAK4CHS)
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.False(t, c.Uncertainty.Present())
	assert.False(t, c.ScaleFactor.Present())
}

func TestLoadCorrector_JEROnly(t *testing.T) {
	base := t.TempDir()
	writeJER(t, base, testJER, LabelAK4Puppi)

	c, err := NewLoader(base, nil).LoadCorrector("", testJER, LabelAK4Puppi)
	require.NoError(t, err)
	assert.False(t, c.JEC.Present())
	assert.True(t, c.Resolution.Present())
}

func TestLoadCorrector_OneMissingFile(t *testing.T) {
	base := t.TempDir()
	fs := writeJEC(t, base, testJEC, LabelAK4CHS, 1.05)
	require.NoError(t, os.Remove(fs.L3Absolute))

	c, err := NewLoader(base, nil).LoadCorrector(testJEC, "", LabelAK4CHS)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, apperrors.ErrMissingCalibration)
	assert.Equal(t, []string{fs.L3Absolute}, apperrors.MissingPaths(err))
	assert.Contains(t, err.Error(), fs.L3Absolute)
	for _, other := range []string{fs.L1FastJet, fs.L2Relative, fs.L2L3Residual, fs.Uncertainty} {
		assert.NotContains(t, err.Error(), other)
	}
}

func TestLoadCorrector_AllMissing(t *testing.T) {
	base := t.TempDir()

	_, err := NewLoader(base, nil).LoadCorrector(testJEC, testJER, LabelAK4CHS)
	require.Error(t, err)

	want := append(NewJECFileSet(base, testJEC, LabelAK4CHS).Paths(), NewJERFileSet(base, testJER, LabelAK4CHS).Paths()...)
	assert.ElementsMatch(t, want, apperrors.MissingPaths(err))
}

func TestLoadCorrector_MalformedFile(t *testing.T) {
	base := t.TempDir()
	fs := writeJEC(t, base, testJEC, LabelAK4CHS, 1.05)
	writeFile(t, fs.L2Relative, "not a calibration file\n")

	_, err := NewLoader(base, nil).LoadCorrector(testJEC, "", LabelAK4CHS)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrParsing)
	assert.NotErrorIs(t, err, apperrors.ErrMissingCalibration)
}
