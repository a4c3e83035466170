package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"bpkupdate/internal/correction"
	"bpkupdate/internal/ntuple"
	"bpkupdate/internal/shared/testutil"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// writeNtuple creates a bprimeKit tree with one AK4 CHS jet per event.
func writeNtuple(t *testing.T, path string, pts ...float32) {
	t.Helper()
	f, err := groot.Create(path)
	require.NoError(t, err)
	dir, err := riofs.Dir(f).Mkdir("bprimeKit")
	require.NoError(t, err)

	var (
		rho  float32
		size int32
		eta  []float32
		phi  []float32
		pt   []float32
		raw  []float32
		area []float32
	)
	w, err := rtree.NewWriter(dir, "root", []rtree.WriteVar{
		{Name: "EvtInfo.Rho", Value: &rho},
		{Name: "JetInfo.Size", Value: &size},
		{Name: "JetInfo.Eta", Value: &eta, Count: "JetInfo.Size"},
		{Name: "JetInfo.Phi", Value: &phi, Count: "JetInfo.Size"},
		{Name: "JetInfo.Pt", Value: &pt, Count: "JetInfo.Size"},
		{Name: "JetInfo.PtCorrRaw", Value: &raw, Count: "JetInfo.Size"},
		{Name: "JetInfo.Area", Value: &area, Count: "JetInfo.Size"},
	})
	require.NoError(t, err)
	for _, p := range pts {
		rho, size = 10, 1
		eta, phi, pt, raw, area = []float32{0.3}, []float32{1}, []float32{p}, []float32{p}, []float32{0.5}
		_, err := w.Write()
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestRun_Help(t *testing.T) {
	code, stdout, _ := execute(t, "--help")
	assert.Equal(t, 0, code)
	for _, flag := range []string{"--input", "--output", "--maxevent", "--report", "--runjec", "--runjer", "--jecversion", "--jerversion"} {
		assert.Contains(t, stdout, flag)
	}
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := execute(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "1.0.0")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.root")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no output", args: []string{"-i", "in.root"}, wantErr: "Output is required"},
		{name: "no input", args: []string{"-o", out}, wantErr: "Inputs is required"},
		{name: "jec without version", args: []string{"-i", "in.root", "-o", out, "--runjec"}, wantErr: "no JEC version"},
		{name: "jer without version", args: []string{"-i", "in.root", "-o", out, "--runjer"}, wantErr: "no JER version"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "missing config", args: []string{"-i", "in.root", "-o", out, "--config", filepath.Join(dir, "none.yaml")}, wantErr: "config file not found"},
		{name: "missing input", args: []string{"-i", filepath.Join(dir, "absent.root"), "-o", out}, wantErr: "does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantErr)
			assert.NoFileExists(t, out)
		})
	}
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bpk_ntuple.root")
	out := filepath.Join(dir, "updated", "bpk_ntuple.root")
	summary := filepath.Join(dir, "summary.csv")
	writeNtuple(t, in, 40, 80, 160, 320)
	t.Setenv("BPK_CALIBRATION_DATA_DIR", testutil.CalibrationStore(t, 1.1))

	code, stdout, stderr := execute(t,
		"-i", in, "-o", out,
		"--runjec", "-j", testutil.JECVersion,
		"--runjer", "--jerversion", testutil.JERVersion,
		"-m", "3", "-r", "2",
		"--collections", "CHS",
		"--summary", summary,
	)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Processing event 1 of 3\nProcessing event 3 of 3\nWrote 3 of 4 events to "+out+"\n", stdout)
	assert.FileExists(t, summary)
	assert.NoFileExists(t, out+".partial")

	src, err := ntuple.OpenROOT(ntuple.DefaultSchema(), out)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, int64(3), src.Entries())

	var jets []correction.Jet
	require.NoError(t, src.Scan(context.Background(), src.Entries(), func(evt *correction.Event) error {
		jets = append(jets, evt.Collections[correction.AK4CHS]...)
		return nil
	}))
	require.Len(t, jets, 3)
	for i, want := range []float64{40, 80, 160} {
		assert.Equal(t, want, jets[i].Pt)
		assert.InDelta(t, 1.331, jets[i].CorrectionFactor, 1e-5)
		assert.InDelta(t, 0.02, jets[i].Uncertainty, 1e-6)
		assert.InDelta(t, 1.1, jets[i].JERScale, 1e-6)
	}
}
