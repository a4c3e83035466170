package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"bpkupdate/internal/correction"
)

// Versions used by the calibration fixtures.
const (
	JECVersion = "Summer16_23Sep2016V4_MC"
	JERVersion = "Spring16_25nsV10_MC"
)

func constantLevel(level string, value float64) string {
	if level == correction.StageL1FastJet {
		return fmt.Sprintf("{1 JetEta 3 Rho JetPt JetA [0] Correction L1FastJet}\n-5.191 5.191 7 0 100 1 6500 0 10 %g\n", value)
	}
	return fmt.Sprintf("{1 JetEta 1 JetPt [0] Correction %s}\n-5.191 5.191 3 1 6500 %g\n", level, value)
}

// Flat 2% uncertainty, 10% resolution and SF 1.1 (down 1.0, up 1.2).
const (
	flatUncertainty = "{1 JetEta 1 JetPt \"\" Correction Uncertainty}\n-5.4 5.4 6 10 0.02 0.02 1000 0.02 0.02\n"
	flatResolution  = "{1 JetEta 2 JetPt Rho [0] Resolution}\n-5.191 5.191 5 0 7000 0 100 0.1\n"
	flatScaleFactor = "{1 JetEta 0 None ScaleFactor}\n0 5.191 3 1.1 1.0 1.2\n"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteJEC writes a complete JEC set whose L1, L2 and L3 stages each
// multiply by stage, so the total factor is stage cubed.
func WriteJEC(t *testing.T, base, version, label string, stage float64) correction.JECFileSet {
	t.Helper()
	fs := correction.NewJECFileSet(base, version, label)
	WriteFile(t, fs.L1FastJet, constantLevel(correction.StageL1FastJet, stage))
	WriteFile(t, fs.L2Relative, constantLevel(correction.StageL2Relative, stage))
	WriteFile(t, fs.L3Absolute, constantLevel(correction.StageL3Absolute, stage))
	WriteFile(t, fs.L2L3Residual, constantLevel(correction.StageL2L3Residual, 1))
	WriteFile(t, fs.Uncertainty, flatUncertainty)
	return fs
}

// WriteJER writes a complete JER set.
func WriteJER(t *testing.T, base, version, label string) correction.JERFileSet {
	t.Helper()
	fs := correction.NewJERFileSet(base, version, label)
	WriteFile(t, fs.PtResolution, flatResolution)
	WriteFile(t, fs.SF, flatScaleFactor)
	return fs
}

// CalibrationStore writes JEC and JER sets for the AK4 CHS and AK4 Puppi
// labels under a fresh temporary directory and returns it.
func CalibrationStore(t *testing.T, stage float64) string {
	t.Helper()
	base := t.TempDir()
	for _, label := range []string{correction.LabelAK4CHS, correction.LabelAK4Puppi} {
		WriteJEC(t, base, JECVersion, label, stage)
		WriteJER(t, base, JERVersion, label)
	}
	return base
}
