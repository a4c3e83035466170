// Package exporter writes the side outputs of a recalibration run.
//
// Summary: per-collection statistics of a run, written as CSV through
// CSVWriter or as an Excel workbook through excelize, chosen by the file
// extension.
//
// JetDump: a correction.Sink decorator that streams every jet of every
// forwarded event to a CSV file before passing the event on.
//
// Example usage:
//
//	summary := exporter.NewSummary(stats, labelOf)
//	summary.RunID = runID
//	err := exporter.WriteSummary("run.xlsx", summary, logger)
package exporter
