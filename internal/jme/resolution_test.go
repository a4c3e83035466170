package jme

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolution(t *testing.T) {
	content := "{1 JetEta 2 JetPt Rho sqrt([0]*abs([0])/(x*x)+[1]*[1]*pow(x,[3])+[2]*[2]) Resolution}\n" +
		"-4.7 4.7 8 15 3000 0 50 2 0 0.05 0\n"
	path := filepath.Join(t.TempDir(), "V1_PtResolution_AK4PFchs.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r, err := LoadResolution(path)
	require.NoError(t, err)

	want := math.Sqrt(4.0/(100*100) + 0.05*0.05)
	assert.InDelta(t, want, r.Resolution(100, 0.5, 20), 1e-12)
	assert.Equal(t, 0.0, r.Resolution(100, 5.0, 20), "outside eta range")
}

func TestScaleFactor(t *testing.T) {
	sf, err := NewScaleFactor(mustParse(t, "{1 JetEta 0 None ScaleFactor}\n0 0.5 3 1.109 1.008 1.210\n0.5 1.1 3 1.138 1.025 1.251\n"))
	require.NoError(t, err)

	tests := []struct {
		name string
		eta  float64
		v    Variation
		want float64
	}{
		{name: "nominal", eta: 0.2, v: Nominal, want: 1.109},
		{name: "down", eta: 0.2, v: Down, want: 1.008},
		{name: "up", eta: 0.2, v: Up, want: 1.210},
		{name: "negative eta uses abs", eta: -0.7, v: Nominal, want: 1.138},
		{name: "outside range", eta: 3, v: Up, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sf.ScaleFactor(50, tt.eta, 10, tt.v))
		})
	}
}

func TestScaleFactor_SignedBins(t *testing.T) {
	sf, err := NewScaleFactor(mustParse(t, "{1 JetEta 0 None ScaleFactor}\n-1 0 3 1.2 1.1 1.3\n0 1 3 1.0 0.9 1.1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1.2, sf.ScaleFactor(50, -0.5, 10, Nominal))
	assert.Equal(t, 1.0, sf.ScaleFactor(50, 0.5, 10, Nominal))
}

func TestNewScaleFactor_WrongValueCount(t *testing.T) {
	_, err := NewScaleFactor(mustParse(t, "{1 JetEta 0 None ScaleFactor}\n0 1 2 1.0 0.9\n"))
	assert.Error(t, err)
}

func TestVariationString(t *testing.T) {
	assert.Equal(t, "nominal", Nominal.String())
	assert.Equal(t, "up", Up.String())
	assert.Equal(t, "down", Down.String())
	assert.Equal(t, "Variation(9)", Variation(9).String())
}
