// Package config loads the bpkupdate configuration and validates the options
// of a run.
//
// # Configuration Sources
//
// Values are applied in order, later sources winning:
//
//	1. Built-in defaults (Default)
//	2. YAML file: --config, or bpkupdate.yaml, or configs/bpkupdate.yaml
//	3. Environment variables with the BPK_ prefix
//
// # Environment Variables
//
//	BPK_LOGGING_LEVEL=debug
//	BPK_CALIBRATION_DATA_DIR=/data/jme
//	BPK_CALIBRATION_PUPPI_FALLBACK=missing
//	BPK_METRICS_ENABLED=true
//	BPK_METRICS_TEXTFILE_PATH=/var/lib/node_exporter/bpkupdate.prom
//
// # Calibration Store
//
// When BPK_CALIBRATION_DATA_DIR is unset the store is looked up under
// $CMSSW_BASE/src/bpkFrameWork/bpkUpdate/data.
//
// # Run Options
//
// RunOptions carries the command-line flags of one run and is checked with
// go-playground/validator struct tags before any dataset is opened.
package config
