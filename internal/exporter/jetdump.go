package exporter

import (
	"fmt"
	"sort"

	"bpkupdate/internal/correction"
)

// JetDumpHeaders are the columns of a jet dump.
var JetDumpHeaders = []string{
	"entry", "collection", "index", "eta", "phi", "pt", "raw_pt", "area", "rho",
	"factor", "uncertainty", "jer_pt", "jer_scale", "jer_scale_up", "jer_scale_down",
}

// JetDump streams every jet to CSV and forwards the event to the next sink.
type JetDump struct {
	next   correction.Sink
	stream *StreamWriter
}

// NewJetDump wraps next.
func NewJetDump(next correction.Sink, stream *StreamWriter) *JetDump {
	return &JetDump{next: next, stream: stream}
}

// Write implements correction.Sink.
func (d *JetDump) Write(evt *correction.Event) error {
	names := make([]string, 0, len(evt.Collections))
	for name := range evt.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for i, j := range evt.Collections[name] {
			rec := []string{
				formatInt(evt.Entry), name, formatInt(int64(i)),
				formatFloat(j.Eta), formatFloat(j.Phi), formatFloat(j.Pt), formatFloat(j.RawPt),
				formatFloat(j.Area), formatFloat(evt.Rho),
				formatFloat(j.CorrectionFactor), formatFloat(j.Uncertainty), formatFloat(j.JERPt),
				formatFloat(j.JERScale), formatFloat(j.JERScaleUp), formatFloat(j.JERScaleDown),
			}
			if err := d.stream.WriteRecord(rec); err != nil {
				return fmt.Errorf("jet dump: %w", err)
			}
		}
	}
	return d.next.Write(evt)
}

// Close flushes the dump file.
func (d *JetDump) Close() error {
	return d.stream.Close()
}
