package correction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testJEC = "Summer16_23Sep2016V4_MC"
	testJER = "Spring16_25nsV10_MC"
)

func constantStage(level string, value float64) string {
	if level == StageL1FastJet {
		return fmt.Sprintf("{1 JetEta 3 Rho JetPt JetA [0] Correction L1FastJet}\n-5.191 5.191 7 0 100 1 6500 0 10 %g\n", value)
	}
	return fmt.Sprintf("{1 JetEta 1 JetPt [0] Correction %s}\n-5.191 5.191 3 1 6500 %g\n", level, value)
}

const uncertaintyStub = `{1 JetEta 1 JetPt "" Correction Uncertainty}
-5.4 5.4 6 10 0.02 0.02 1000 0.01 0.01
`

const resolutionStub = `{1 JetEta 2 JetPt Rho [0] Resolution}
-5.191 5.191 5 0 7000 0 100 0.1
`

const scaleFactorStub = `{1 JetEta 0 None ScaleFactor}
0 5.191 3 1.1 1.0 1.2
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeJEC writes the five JEC files of label with every chain stage at
// stageValue except the residual, which is 1.
func writeJEC(t *testing.T, base, version, label string, stageValue float64) JECFileSet {
	t.Helper()
	fs := NewJECFileSet(base, version, label)
	writeFile(t, fs.L1FastJet, constantStage(StageL1FastJet, stageValue))
	writeFile(t, fs.L2Relative, constantStage(StageL2Relative, stageValue))
	writeFile(t, fs.L3Absolute, constantStage(StageL3Absolute, stageValue))
	writeFile(t, fs.L2L3Residual, constantStage(StageL2L3Residual, 1.0))
	writeFile(t, fs.Uncertainty, uncertaintyStub)
	return fs
}

func writeJER(t *testing.T, base, version, label string) JERFileSet {
	t.Helper()
	fs := NewJERFileSet(base, version, label)
	writeFile(t, fs.PtResolution, resolutionStub)
	writeFile(t, fs.SF, scaleFactorStub)
	return fs
}

// memSource is a minimal in-package Source.
type memSource struct {
	events      []*Event
	collections []string
	scanned     int64
}

func (s *memSource) Entries() int64        { return int64(len(s.events)) }
func (s *memSource) Collections() []string { return s.collections }

func (s *memSource) Scan(ctx context.Context, limit int64, fn func(*Event) error) error {
	for i := int64(0); i < limit && i < int64(len(s.events)); i++ {
		evt := s.events[i].Clone()
		evt.Entry = i
		s.scanned++
		if err := fn(evt); err != nil {
			return err
		}
	}
	return nil
}

type memSink struct {
	events []*Event
}

func (s *memSink) Write(evt *Event) error {
	s.events = append(s.events, evt.Clone())
	return nil
}

func jetsAt(pts ...float64) []Jet {
	jets := make([]Jet, len(pts))
	for i, pt := range pts {
		jets[i] = Jet{Eta: 0, Pt: pt, RawPt: pt, Area: 0.5}
	}
	return jets
}
