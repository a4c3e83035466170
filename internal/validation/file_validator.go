package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "bpkupdate/internal/errors"
)

// FileValidator checks the dataset paths of a run before anything is opened
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ExpandInputs expands glob patterns in the input list. Plain paths are kept
// as given, in order. A pattern matching nothing is an error.
func (v *FileValidator) ExpandInputs(inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if !strings.ContainsAny(in, "*?[") {
			out = append(out, in)
			continue
		}
		matches, err := filepath.Glob(in)
		if err != nil {
			return nil, apperrors.NewDatasetError("invalid input pattern", err).WithContext("pattern", in)
		}
		if len(matches) == 0 {
			return nil, apperrors.NewDatasetError("input pattern matches no file", nil).WithContext("pattern", in)
		}
		v.logger.Debug("Input pattern expanded",
			slog.String("pattern", in),
			slog.Int("files_found", len(matches)))
		out = append(out, matches...)
	}
	return out, nil
}

// ValidateInputs checks that every input is a readable regular file. Every
// bad input is reported.
func (v *FileValidator) ValidateInputs(inputs []string) error {
	var errs []error
	for _, in := range inputs {
		if err := v.ValidateFile(in); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return apperrors.NewDatasetError("invalid input dataset", err)
	}
	v.logger.Info("Input datasets validated", slog.Int("files", len(inputs)))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".root" {
		v.logger.Warn("Input does not have a .root extension",
			slog.String("file", path),
			slog.String("extension", ext))
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutput ensures the directory of path exists and is writable and
// that path itself is not a directory
func (v *FileValidator) ValidateOutput(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewDatasetError("output path is a directory", nil).WithContext("path", path)
	}
	if err := v.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
		return apperrors.NewDatasetError("output directory not usable", err).WithContext("path", path)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(file.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
