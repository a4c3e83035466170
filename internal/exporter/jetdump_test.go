package exporter

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpkupdate/internal/correction"
	"bpkupdate/internal/ntuple"
)

type failingSink struct{ err error }

func (s failingSink) Write(*correction.Event) error { return s.err }

func TestJetDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jets.csv")
	stream, err := NewCSVWriter(nil).CreateStreamWriter(path, JetDumpHeaders)
	require.NoError(t, err)

	next := ntuple.NewMemorySink()
	dump := NewJetDump(next, stream)

	evt := &correction.Event{
		Entry: 7,
		Rho:   12.5,
		Collections: map[string][]correction.Jet{
			correction.AK8Puppi: {{Eta: 1, Pt: 200, RawPt: 190, CorrectionFactor: 1.05}},
			correction.AK4CHS: {
				{Eta: 0.5, Pt: 30, RawPt: 28, Area: 0.5, CorrectionFactor: 1.1, Uncertainty: 0.02},
				{Eta: -2, Pt: 50, RawPt: 45},
			},
		},
	}
	require.NoError(t, dump.Write(evt))
	require.NoError(t, dump.Close())
	require.NoError(t, next.Commit())

	assert.Equal(t, 3, stream.Rows())
	require.Len(t, next.Events(), 1)
	assert.Equal(t, int64(7), next.Events()[0].Entry)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, JetDumpHeaders, records[0])
	assert.Equal(t, []string{"7", correction.AK4CHS, "0", "0.5", "0", "30", "28", "0.5", "12.5", "1.1", "0.02", "0", "0", "0", "0"}, records[1])
	assert.Equal(t, "1", records[2][2])
	assert.Equal(t, correction.AK8Puppi, records[3][1])
}

func TestJetDumpForwardsSinkError(t *testing.T) {
	stream, err := NewCSVWriter(nil).CreateStreamWriter(filepath.Join(t.TempDir(), "jets.csv"), JetDumpHeaders)
	require.NoError(t, err)
	defer stream.Close()

	sinkErr := errors.New("disk full")
	dump := NewJetDump(failingSink{err: sinkErr}, stream)

	err = dump.Write(&correction.Event{Collections: map[string][]correction.Jet{}})
	assert.ErrorIs(t, err, sinkErr)
}
