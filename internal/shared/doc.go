// Package shared holds helpers used by more than one bpkupdate package.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- LogCapture, an slog.Handler that records log records for assertions
//	- Calibration store fixtures with constant JEC and JER files
//
// Only test code imports testutil.
package shared
