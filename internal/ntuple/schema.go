package ntuple

import (
	"sort"

	"bpkupdate/internal/correction"
)

// DefaultTree is the tree written by bprimeKit.
const DefaultTree = "bprimeKit/root"

// Per-collection field names.
const (
	FieldSize     = "Size"
	FieldEta      = "Eta"
	FieldPhi      = "Phi"
	FieldPt       = "Pt"
	FieldRawPt    = "PtCorrRaw"
	FieldArea     = "Area"
	FieldFactor   = "Unc"
	FieldUnc      = "JesUnc"
	FieldJERPt    = "JERPt"
	FieldJERScale = "JERScale"
	FieldJERUp    = "JERScaleUp"
	FieldJERDown  = "JERScaleDown"
)

// OutputFields are written back for every corrected collection.
var OutputFields = []string{FieldFactor, FieldUnc, FieldJERPt, FieldJERScale, FieldJERUp, FieldJERDown}

// Schema maps jet collections to column prefixes.
type Schema struct {
	Tree     string
	Rho      string
	Prefixes map[string]string
}

// DefaultSchema is the bprimeKit layout.
func DefaultSchema() Schema {
	return Schema{
		Tree: DefaultTree,
		Rho:  "EvtInfo.Rho",
		Prefixes: map[string]string{
			correction.AK4CHS:   "JetInfo",
			correction.AK4Puppi: "JetAK4PuppiInfo",
			correction.AK8Puppi: "JetAK8Info",
			correction.CA8Puppi: "JetCA8Info",
		},
	}
}

// Column returns the column name of field in collection.
func (s Schema) Column(collection, field string) string {
	return s.Prefixes[collection] + "." + field
}

// Detect returns the collections whose Size and Pt columns are both in
// columns, sorted.
func (s Schema) Detect(columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	var out []string
	for name := range s.Prefixes {
		if have[s.Column(name, FieldSize)] && have[s.Column(name, FieldPt)] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
