package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"bpkupdate/internal/correction"
)

// Summary describes one finished run.
type Summary struct {
	RunID      string
	JECVersion string
	JERVersion string
	Inputs     []string
	Output     string
	Total      int64
	Events     int64
	CopyOnly   bool
	Duration   time.Duration
	Rows       []CollectionRow
}

// CollectionRow is the summary of one jet collection.
type CollectionRow struct {
	Collection      string
	Label           string
	Jets            int64
	Corrected       int64
	MeanFactor      float64
	MeanUncertainty float64
	MeanJERScale    float64
}

// SummaryHeaders are the columns of the collection table.
var SummaryHeaders = []string{
	"run_id", "jec_version", "jer_version", "collection", "label",
	"events", "jets", "corrected", "mean_factor", "mean_uncertainty", "mean_jer_scale",
}

// NewSummary builds the collection rows from the iterator statistics.
// labelOf names the calibration label used for a collection; it may be nil.
func NewSummary(stats correction.RunStats, labelOf func(collection string) string) Summary {
	s := Summary{Total: stats.Total, Events: stats.Events, CopyOnly: stats.CopyOnly}
	for name, st := range stats.Collections {
		row := CollectionRow{
			Collection:      name,
			Jets:            st.Jets,
			Corrected:       st.Corrected,
			MeanFactor:      st.MeanFactor(),
			MeanUncertainty: st.MeanUncertainty(),
			MeanJERScale:    st.MeanJERScale(),
		}
		if labelOf != nil {
			row.Label = labelOf(name)
		}
		s.Rows = append(s.Rows, row)
	}
	sort.Slice(s.Rows, func(i, j int) bool { return s.Rows[i].Collection < s.Rows[j].Collection })
	return s
}

func (s Summary) records() [][]string {
	out := make([][]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		out = append(out, []string{
			s.RunID, s.JECVersion, s.JERVersion, r.Collection, r.Label,
			formatInt(s.Events), formatInt(r.Jets), formatInt(r.Corrected),
			formatFixed(r.MeanFactor), formatFixed(r.MeanUncertainty), formatFixed(r.MeanJERScale),
		})
	}
	return out
}

// WriteSummary writes s as CSV or XLSX depending on the extension of path.
func WriteSummary(path string, s Summary, logger *slog.Logger) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVWriter(logger).WriteCSV(path, WriteOptions{
			Headers: SummaryHeaders,
			Records: s.records(),
		})
	case ".xlsx":
		return writeSummaryXLSX(path, s)
	}
	return fmt.Errorf("unsupported summary format %q", filepath.Ext(path))
}

const (
	collectionsSheet = "Collections"
	runSheet         = "Run"
)

func writeSummaryXLSX(path string, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", collectionsSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(SummaryHeaders))
	for i, h := range SummaryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(collectionsSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range s.Rows {
		row := []interface{}{
			s.RunID, s.JECVersion, s.JERVersion, r.Collection, r.Label,
			s.Events, r.Jets, r.Corrected, r.MeanFactor, r.MeanUncertainty, r.MeanJERScale,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(collectionsSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(runSheet); err != nil {
		return err
	}
	info := [][]interface{}{
		{"run_id", s.RunID},
		{"jec_version", s.JECVersion},
		{"jer_version", s.JERVersion},
		{"inputs", strings.Join(s.Inputs, ",")},
		{"output", s.Output},
		{"entries", s.Total},
		{"events", s.Events},
		{"copy_only", s.CopyOnly},
		{"duration_seconds", s.Duration.Seconds()},
	}
	for i, kv := range info {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(runSheet, cell, &kv); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
