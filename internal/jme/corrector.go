package jme

import (
	"fmt"
	"math"
)

// Input carries the jet and event quantities a calibration may depend on.
type Input struct {
	Eta  float64
	Phi  float64
	Pt   float64
	Area float64
	Rho  float64
}

type variable func(Input) float64

var variables = map[string]variable{
	"JetEta":    func(in Input) float64 { return in.Eta },
	"JetAbsEta": func(in Input) float64 { return math.Abs(in.Eta) },
	"JetPhi":    func(in Input) float64 { return in.Phi },
	"JetPt":     func(in Input) float64 { return in.Pt },
	"JetA":      func(in Input) float64 { return in.Area },
	"Rho":       func(in Input) float64 { return in.Rho },
}

func lookupVariables(names []string) ([]variable, error) {
	out := make([]variable, len(names))
	for i, name := range names {
		v, ok := variables[name]
		if !ok {
			return nil, fmt.Errorf("unknown variable %q", name)
		}
		out[i] = v
	}
	return out, nil
}

// SimpleCorrector evaluates a single calibration level from its parameters.
type SimpleCorrector struct {
	params  *Parameters
	formula *Formula
	binVars []variable
	parVars []variable
}

// LoadSimpleCorrector reads a calibration file and builds a SimpleCorrector.
func LoadSimpleCorrector(path string) (*SimpleCorrector, error) {
	p, err := LoadParameters(path)
	if err != nil {
		return nil, err
	}
	c, err := NewSimpleCorrector(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// NewSimpleCorrector validates parsed parameters and compiles their formula.
func NewSimpleCorrector(p *Parameters) (*SimpleCorrector, error) {
	def := p.Definition
	if len(def.ParVars) > MaxVariables {
		return nil, fmt.Errorf("%d parameter variables, at most %d supported", len(def.ParVars), MaxVariables)
	}
	formula, err := CompileFormula(def.Formula)
	if err != nil {
		return nil, err
	}
	binVars, err := lookupVariables(def.BinVars)
	if err != nil {
		return nil, err
	}
	parVars, err := lookupVariables(def.ParVars)
	if err != nil {
		return nil, err
	}
	for i, rec := range p.Records {
		if len(rec.Values) < 2*len(parVars) {
			return nil, fmt.Errorf("record %d: %d values cannot hold %d variable ranges", i, len(rec.Values), len(parVars))
		}
	}
	return &SimpleCorrector{
		params:  p,
		formula: formula,
		binVars: binVars,
		parVars: parVars,
	}, nil
}

// Level is the calibration level named in the definition line, e.g. L2Relative.
func (c *SimpleCorrector) Level() string { return c.params.Definition.Level }

// Correction evaluates the level for one jet. Jets outside every bin get 1.
func (c *SimpleCorrector) Correction(in Input) float64 {
	return c.evaluate(in, 1)
}

func (c *SimpleCorrector) evaluate(in Input, neutral float64) float64 {
	var bins [MaxVariables]float64
	n := len(c.binVars)
	if n > MaxVariables {
		n = MaxVariables
	}
	for i := 0; i < n; i++ {
		bins[i] = c.binVars[i](in)
	}
	idx := c.params.BinIndex(bins[:n])
	if idx < 0 {
		return neutral
	}
	rec := c.params.Records[idx]

	var x [MaxVariables]float64
	for i, v := range c.parVars {
		lo, hi := rec.parRange(i)
		x[i] = clamp(v(in), lo, hi)
	}
	return c.formula.Eval(x, rec.params(len(c.parVars)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
