package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "bpkupdate/internal/errors"
)

// CalibrationDataDir resolves the calibration store. The configured
// directory wins, then $CMSSW_BASE/src/bpkFrameWork/bpkUpdate/data, then a
// data directory next to the executable.
func (c *Config) CalibrationDataDir() (string, error) {
	if dir := c.Calibration.DataDir; dir != "" {
		return checkDir(dir)
	}
	if base := os.Getenv(CMSSWBaseEnv); base != "" {
		return checkDir(filepath.Join(base, CMSSWCalibrationDir))
	}

	exe, err := os.Executable()
	if err == nil {
		if exe, err = filepath.EvalSymlinks(exe); err == nil {
			dir := filepath.Join(filepath.Dir(exe), "data")
			if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
				slog.Debug("Using calibration data next to executable", slog.String("dir", dir))
				return dir, nil
			}
		}
	}
	return "", apperrors.NewConfigError(
		fmt.Sprintf("no calibration data directory: set BPK_CALIBRATION_DATA_DIR or %s", CMSSWBaseEnv), nil)
}

func checkDir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", apperrors.NewConfigError("calibration data directory not accessible", err).WithContext("dir", dir)
	}
	if !info.IsDir() {
		return "", apperrors.NewConfigError("calibration data path is not a directory", nil).WithContext("dir", dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir, nil
	}
	return abs, nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
