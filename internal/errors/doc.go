// Package errors defines the error taxonomy of a recalibration run.
//
// Every fatal condition is one of:
//
//	CONFIG               a correction was requested without its version string
//	MISSING_CALIBRATION  one or more calibration files are absent
//	DATASET              input cannot be opened or output cannot be created
//	PARSING              a calibration file exists but cannot be read
//
// Use errors.Is with the exported sentinels to classify an error:
//
//	if errors.Is(err, apperrors.ErrMissingCalibration) {
//	    for _, p := range apperrors.MissingPaths(err) { ... }
//	}
package errors
