package correction

import (
	"fmt"
	"os"
	"path/filepath"
)

// JEC stage names in application order.
const (
	StageL1FastJet    = "L1FastJet"
	StageL2Relative   = "L2Relative"
	StageL3Absolute   = "L3Absolute"
	StageL2L3Residual = "L2L3Residual"
	StageUncertainty  = "Uncertainty"
	StagePtResolution = "PtResolution"
	StageSF           = "SF"
)

// JECStages is the factorized chain order.
var JECStages = []string{StageL1FastJet, StageL2Relative, StageL3Absolute, StageL2L3Residual}

// CalibrationPath returns <base>/<version>/<version>_<stage>_<label>.txt.
func CalibrationPath(base, version, stage, label string) string {
	return filepath.Join(base, version, fmt.Sprintf("%s_%s_%s.txt", version, stage, label))
}

// JECFileSet names the five files of one JEC version and label.
type JECFileSet struct {
	L1FastJet    string
	L2Relative   string
	L3Absolute   string
	L2L3Residual string
	Uncertainty  string
}

// NewJECFileSet resolves the JEC paths under base.
func NewJECFileSet(base, version, label string) JECFileSet {
	return JECFileSet{
		L1FastJet:    CalibrationPath(base, version, StageL1FastJet, label),
		L2Relative:   CalibrationPath(base, version, StageL2Relative, label),
		L3Absolute:   CalibrationPath(base, version, StageL3Absolute, label),
		L2L3Residual: CalibrationPath(base, version, StageL2L3Residual, label),
		Uncertainty:  CalibrationPath(base, version, StageUncertainty, label),
	}
}

// Stages returns the chain paths in application order.
func (s JECFileSet) Stages() []string {
	return []string{s.L1FastJet, s.L2Relative, s.L3Absolute, s.L2L3Residual}
}

// Paths returns every path of the set.
func (s JECFileSet) Paths() []string {
	return append(s.Stages(), s.Uncertainty)
}

// JERFileSet names the two files of one JER version and label.
type JERFileSet struct {
	PtResolution string
	SF           string
}

// NewJERFileSet resolves the JER paths under base.
func NewJERFileSet(base, version, label string) JERFileSet {
	return JERFileSet{
		PtResolution: CalibrationPath(base, version, StagePtResolution, label),
		SF:           CalibrationPath(base, version, StageSF, label),
	}
}

// Paths returns every path of the set.
func (s JERFileSet) Paths() []string {
	return []string{s.PtResolution, s.SF}
}

// missing returns the paths that are not regular files.
func missing(paths []string) []string {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
