package jme

import (
	"fmt"
	"sort"
)

// Uncertainty interpolates the tabulated JEC uncertainty of a jet.
type Uncertainty struct {
	params  *Parameters
	binVars []variable
	tables  [][]point
}

type point struct {
	pt, up, down float64
}

// LoadUncertainty reads an Uncertainty file.
func LoadUncertainty(path string) (*Uncertainty, error) {
	p, err := LoadParameters(path)
	if err != nil {
		return nil, err
	}
	u, err := NewUncertainty(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// NewUncertainty builds an Uncertainty from parsed parameters. Each record
// holds (pt, up, down) triplets sorted by pt.
func NewUncertainty(p *Parameters) (*Uncertainty, error) {
	binVars, err := lookupVariables(p.Definition.BinVars)
	if err != nil {
		return nil, err
	}
	u := &Uncertainty{params: p, binVars: binVars}
	for i, rec := range p.Records {
		if len(rec.Values) == 0 || len(rec.Values)%3 != 0 {
			return nil, fmt.Errorf("record %d: %d values is not a list of (pt, up, down) triplets", i, len(rec.Values))
		}
		table := make([]point, 0, len(rec.Values)/3)
		for j := 0; j < len(rec.Values); j += 3 {
			table = append(table, point{pt: rec.Values[j], up: rec.Values[j+1], down: rec.Values[j+2]})
		}
		sort.Slice(table, func(a, b int) bool { return table[a].pt < table[b].pt })
		u.tables = append(u.tables, table)
	}
	return u, nil
}

// Uncertainty returns the upward relative uncertainty for a jet of the given
// eta and corrected pt. Jets outside every eta bin get 0.
func (u *Uncertainty) Uncertainty(eta, pt float64) float64 {
	return u.Shift(eta, pt, true)
}

// Shift returns the upward or downward relative uncertainty.
func (u *Uncertainty) Shift(eta, pt float64, up bool) float64 {
	in := Input{Eta: eta, Pt: pt}
	var bins [MaxVariables]float64
	n := len(u.binVars)
	if n > MaxVariables {
		n = MaxVariables
	}
	for i := 0; i < n; i++ {
		bins[i] = u.binVars[i](in)
	}
	idx := u.params.BinIndex(bins[:n])
	if idx < 0 {
		return 0
	}

	side := func(p point) float64 {
		if up {
			return p.up
		}
		return p.down
	}
	table := u.tables[idx]
	if pt <= table[0].pt {
		return side(table[0])
	}
	last := table[len(table)-1]
	if pt >= last.pt {
		return side(last)
	}
	hi := sort.Search(len(table), func(i int) bool { return table[i].pt >= pt })
	a, b := table[hi-1], table[hi]
	frac := (pt - a.pt) / (b.pt - a.pt)
	return side(a) + frac*(side(b)-side(a))
}
