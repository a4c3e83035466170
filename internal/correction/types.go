package correction

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is a pileup-mitigation family of jet collections.
type Kind string

const (
	CHS   Kind = "CHS"
	Puppi Kind = "Puppi"
)

// ParseKind accepts "chs" or "puppi" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chs":
		return CHS, nil
	case "puppi":
		return Puppi, nil
	}
	return "", fmt.Errorf("unknown jet collection kind %q (want CHS or Puppi)", s)
}

// Jet collection names as they appear in an event.
const (
	AK4CHS   = "AK4-CHS"
	AK4Puppi = "AK4-Puppi"
	AK8Puppi = "AK8-Puppi"
	CA8Puppi = "CA8-Puppi"
)

// Calibration labels used in calibration file names.
const (
	LabelAK4CHS   = "AK4PFchs"
	LabelAK4Puppi = "AK4PFPuppi"
	LabelAK8Puppi = "AK8PFPuppi"
)

// collectionInfo describes a known jet collection.
type collectionInfo struct {
	kind  Kind
	label string
	// wide collections may fall back to the AK4 Puppi calibration.
	wide bool
}

var knownCollections = map[string]collectionInfo{
	AK4CHS:   {kind: CHS, label: LabelAK4CHS},
	AK4Puppi: {kind: Puppi, label: LabelAK4Puppi},
	AK8Puppi: {kind: Puppi, label: LabelAK8Puppi, wide: true},
	CA8Puppi: {kind: Puppi, label: LabelAK8Puppi, wide: true},
}

// CollectionsOf returns the known collections of the given kinds, sorted.
func CollectionsOf(kinds ...Kind) []string {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []string
	for name, info := range knownCollections {
		if want[info.kind] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Jet is one jet of one collection. Inputs are read from the dataset; the
// output fields stay zero until Correct fills them.
type Jet struct {
	Eta   float64
	Phi   float64
	Pt    float64
	RawPt float64
	Area  float64

	CorrectionFactor float64
	Uncertainty      float64
	JERPt            float64
	JERScale         float64
	JERScaleUp       float64
	JERScaleDown     float64
}

// Event is one row of the dataset.
type Event struct {
	Entry       int64
	Rho         float64
	Collections map[string][]Jet
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	out := &Event{
		Entry:       e.Entry,
		Rho:         e.Rho,
		Collections: make(map[string][]Jet, len(e.Collections)),
	}
	for name, jets := range e.Collections {
		out.Collections[name] = append([]Jet(nil), jets...)
	}
	return out
}

// RunConfiguration is resolved once per run and never modified.
type RunConfiguration struct {
	RunJEC            bool
	RunJER            bool
	JECVersion        string
	JERVersion        string
	ActiveCollections []Kind
	// MaxEvents limits the events read: negative means all, 0 means copy
	// every event without correcting.
	MaxEvents      int
	ReportInterval int
}

// Collections lists the collection names enabled by ActiveCollections.
func (c RunConfiguration) Collections() []string {
	return CollectionsOf(c.ActiveCollections...)
}
