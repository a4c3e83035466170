package correction

import "bpkupdate/internal/jme"

// Stage is one level of the factorized energy correction.
type Stage interface {
	Level() string
	Correction(in jme.Input) float64
}

// FactorizedCorrector chains stages multiplicatively. Each stage sees the pt
// produced by the stages before it.
type FactorizedCorrector struct {
	stages []Stage
}

// NewFactorizedCorrector applies stages in the given order.
func NewFactorizedCorrector(stages ...Stage) *FactorizedCorrector {
	return &FactorizedCorrector{stages: append([]Stage(nil), stages...)}
}

// Levels lists the stage levels in application order.
func (f *FactorizedCorrector) Levels() []string {
	out := make([]string, len(f.stages))
	for i, s := range f.stages {
		out[i] = s.Level()
	}
	return out
}

// Correction returns the product of every stage evaluated on the raw input.
func (f *FactorizedCorrector) Correction(in jme.Input) float64 {
	total := 1.0
	rawPt := in.Pt
	for _, s := range f.stages {
		in.Pt = rawPt * total
		total *= s.Correction(in)
	}
	return total
}
