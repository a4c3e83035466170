package jme

import (
	"fmt"
	"math"
)

// Variation selects the scale factor variant.
type Variation int

const (
	Nominal Variation = iota
	Up
	Down
)

func (v Variation) String() string {
	switch v {
	case Nominal:
		return "nominal"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("Variation(%d)", int(v))
}

// Resolution evaluates the relative jet pt resolution.
type Resolution struct {
	c *SimpleCorrector
}

// LoadResolution reads a PtResolution file.
func LoadResolution(path string) (*Resolution, error) {
	c, err := LoadSimpleCorrector(path)
	if err != nil {
		return nil, err
	}
	return &Resolution{c: c}, nil
}

// Resolution returns the resolution for a jet. Jets outside every bin get 0.
func (r *Resolution) Resolution(pt, eta, rho float64) float64 {
	return r.c.evaluate(Input{Pt: pt, Eta: eta, Rho: rho}, 0)
}

// ScaleFactor holds the data/simulation resolution scale factors.
type ScaleFactor struct {
	params  *Parameters
	binVars []variable
	absEta  bool
}

// LoadScaleFactor reads an SF file.
func LoadScaleFactor(path string) (*ScaleFactor, error) {
	p, err := LoadParameters(path)
	if err != nil {
		return nil, err
	}
	sf, err := NewScaleFactor(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sf, nil
}

// NewScaleFactor builds a ScaleFactor. Each record holds "nominal down up".
func NewScaleFactor(p *Parameters) (*ScaleFactor, error) {
	binVars, err := lookupVariables(p.Definition.BinVars)
	if err != nil {
		return nil, err
	}
	absEta := true
	for i, rec := range p.Records {
		if len(rec.Values) != 3 {
			return nil, fmt.Errorf("record %d: want 3 values (nominal down up), got %d", i, len(rec.Values))
		}
		for j, name := range p.Definition.BinVars {
			if name == "JetEta" && rec.BinMin[j] < 0 {
				absEta = false
			}
		}
	}
	return &ScaleFactor{params: p, binVars: binVars, absEta: absEta}, nil
}

// ScaleFactor returns the factor for the requested variation. Files binned in
// |eta| are looked up with |eta|. Jets outside every bin get 1.
func (s *ScaleFactor) ScaleFactor(pt, eta, rho float64, v Variation) float64 {
	if s.absEta {
		eta = math.Abs(eta)
	}
	in := Input{Pt: pt, Eta: eta, Rho: rho}
	var bins [MaxVariables]float64
	n := len(s.binVars)
	if n > MaxVariables {
		n = MaxVariables
	}
	for i := 0; i < n; i++ {
		bins[i] = s.binVars[i](in)
	}
	idx := s.params.BinIndex(bins[:n])
	if idx < 0 {
		return 1
	}
	vals := s.params.Records[idx].Values
	switch v {
	case Down:
		return vals[1]
	case Up:
		return vals[2]
	default:
		return vals[0]
	}
}
