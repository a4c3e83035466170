package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bpkupdate/internal/errors"
)

// chdir moves into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "stderr", cfg.Logging.Output)
				assert.Equal(t, PuppiFallbackAlways, cfg.Calibration.PuppiFallback)
				assert.Equal(t, DefaultTree, cfg.Calibration.Tree)
				assert.Equal(t, DefaultLoadConcurrency, cfg.Calibration.LoadConcurrency)
				assert.False(t, cfg.Metrics.Enabled)
			},
		},
		{
			name: "file values",
			file: "logging:\n  level: debug\ncalibration:\n  data_dir: /jme\n  puppi_fallback: Missing\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "/jme", cfg.Calibration.DataDir)
				assert.Equal(t, PuppiFallbackMissing, cfg.Calibration.PuppiFallback)
				assert.Equal(t, DefaultTree, cfg.Calibration.Tree, "unset keys keep defaults")
			},
		},
		{
			name: "env overrides file",
			file: "calibration:\n  data_dir: /from-file\n",
			env: map[string]string{
				"BPK_CALIBRATION_DATA_DIR":  "/from-env",
				"BPK_METRICS_ENABLED":       "true",
				"BPK_METRICS_TEXTFILE_PATH": "/tmp/bpk.prom",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/from-env", cfg.Calibration.DataDir)
				assert.True(t, cfg.Metrics.Enabled)
				assert.Equal(t, "/tmp/bpk.prom", cfg.Metrics.TextfilePath)
			},
		},
		{
			name:    "bad fallback",
			env:     map[string]string{"BPK_CALIBRATION_PUPPI_FALLBACK": "sometimes"},
			wantErr: true,
		},
		{
			name:    "bad log level",
			file:    "logging:\n  level: loud\n",
			wantErr: true,
		},
		{
			name:    "metrics without path",
			env:     map[string]string{"BPK_METRICS_ENABLED": "true"},
			wantErr: true,
		},
		{
			name:    "unknown key",
			file:    "calibration:\n  datadir: /typo\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			chdir(t, dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "bpkupdate.yaml"), []byte(tt.file), 0o644))
			}

			cfg, err := Load("")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calibration:\n  tree: Events\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Events", cfg.Calibration.Tree)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestCalibrationDataDir(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Default()
		cfg.Calibration.DataDir = dir
		got, err := cfg.CalibrationDataDir()
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("from CMSSW_BASE", func(t *testing.T) {
		base := t.TempDir()
		want := filepath.Join(base, CMSSWCalibrationDir)
		require.NoError(t, os.MkdirAll(want, 0o755))
		t.Setenv(CMSSWBaseEnv, base)

		got, err := Default().CalibrationDataDir()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("configured but missing", func(t *testing.T) {
		cfg := Default()
		cfg.Calibration.DataDir = filepath.Join(t.TempDir(), "nope")
		_, err := cfg.CalibrationDataDir()
		assert.True(t, apperrors.IsConfiguration(err))
	})

	t.Run("a file is not a store", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(f, nil, 0o644))
		cfg := Default()
		cfg.Calibration.DataDir = f
		_, err := cfg.CalibrationDataDir()
		assert.Error(t, err)
	})
}

func TestEnsureParentDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "out.root")
	require.NoError(t, EnsureParentDir(target))
	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, EnsureParentDir("local.root"))
}
