package config

// Application constants
const (
	AppName    = "bpkupdate"
	AppVersion = "1.0.0"

	// Input layout written by bprimeKit
	DefaultTree = "bprimeKit/root"

	// Calibration store relative to $CMSSW_BASE
	CMSSWBaseEnv        = "CMSSW_BASE"
	CMSSWCalibrationDir = "src/bpkFrameWork/bpkUpdate/data"

	DefaultLogFile         = "logs/bpkupdate.log"
	DefaultLoadConcurrency = 4

	// CLI defaults
	DefaultMaxEvents      = 10000
	DefaultReportInterval = 1000
)

// Puppi fallback policies
const (
	PuppiFallbackAlways  = "always"
	PuppiFallbackMissing = "missing"
	PuppiFallbackNever   = "never"
)

// DefaultConfigFiles are searched in order when no --config is given.
var DefaultConfigFiles = []string{
	"bpkupdate.yaml",
	"configs/bpkupdate.yaml",
}
