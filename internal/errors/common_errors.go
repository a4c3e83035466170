package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfig             ErrorType = "CONFIG"
	ErrTypeMissingCalibration ErrorType = "MISSING_CALIBRATION"
	ErrTypeDataset            ErrorType = "DATASET"
	ErrTypeParsing            ErrorType = "PARSING"
)

// Sentinels for errors.Is. An AppError matches a sentinel when their types agree.
var (
	ErrConfiguration      = &AppError{Type: ErrTypeConfig}
	ErrMissingCalibration = &AppError{Type: ErrTypeMissingCalibration}
	ErrDataset            = &AppError{Type: ErrTypeDataset}
	ErrParsing            = &AppError{Type: ErrTypeParsing}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewDatasetError creates an error for a dataset that cannot be opened or created
func NewDatasetError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDataset, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// MissingCalibrationError lists every calibration file that a requested
// version/label combination expects but the store does not hold.
type MissingCalibrationError struct {
	Label   string
	Version string
	Paths   []string
}

func (e *MissingCalibrationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] missing calibration files for %s (version %s):", ErrTypeMissingCalibration, e.Label, e.Version)
	for _, p := range e.Paths {
		b.WriteString("\n\t")
		b.WriteString(p)
	}
	return b.String()
}

// Is matches ErrMissingCalibration.
func (e *MissingCalibrationError) Is(target error) bool {
	return target == ErrMissingCalibration
}

// NewMissingCalibrationError creates a missing-file error naming every path.
func NewMissingCalibrationError(label, version string, paths []string) *MissingCalibrationError {
	return &MissingCalibrationError{
		Label:   label,
		Version: version,
		Paths:   append([]string(nil), paths...),
	}
}

// MissingPaths collects the paths of every MissingCalibrationError found in err,
// including errors combined with errors.Join.
func MissingPaths(err error) []string {
	var paths []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if mc, ok := e.(*MissingCalibrationError); ok {
			paths = append(paths, mc.Paths...)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return paths
}

// ExitCode maps a run outcome to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// IsConfiguration is shorthand for errors.Is(err, ErrConfiguration).
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
