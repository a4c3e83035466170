package correction

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "bpkupdate/internal/errors"
	"bpkupdate/internal/jme"
)

// LoadObserver receives the duration of every successful load.
type LoadObserver interface {
	ObserveLoad(label string, d time.Duration)
}

// Loader builds Correctors from the calibration files under BaseDir.
type Loader struct {
	BaseDir  string
	Logger   *slog.Logger
	Observer LoadObserver
}

// NewLoader returns a loader rooted at baseDir.
func NewLoader(baseDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{BaseDir: baseDir, Logger: logger}
}

// LoadCorrector builds the corrector of label. An empty version leaves the
// matching half of the corrector empty. When any expected file is absent the
// error names every missing path and no corrector is returned.
func (l *Loader) LoadCorrector(versionJEC, versionJER, label string) (*Corrector, error) {
	start := time.Now()

	var jecFiles *JECFileSet
	var jerFiles *JERFileSet
	var missingErrs []error
	if versionJEC != "" {
		fs := NewJECFileSet(l.BaseDir, versionJEC, label)
		jecFiles = &fs
		if m := missing(fs.Paths()); len(m) > 0 {
			missingErrs = append(missingErrs, apperrors.NewMissingCalibrationError(label, versionJEC, m))
		}
	}
	if versionJER != "" {
		fs := NewJERFileSet(l.BaseDir, versionJER, label)
		jerFiles = &fs
		if m := missing(fs.Paths()); len(m) > 0 {
			missingErrs = append(missingErrs, apperrors.NewMissingCalibrationError(label, versionJER, m))
		}
	}
	if len(missingErrs) > 0 {
		return nil, errors.Join(missingErrs...)
	}

	c := &Corrector{Label: label, JECVersion: versionJEC, JERVersion: versionJER}
	if jecFiles != nil {
		if err := l.loadJEC(c, *jecFiles); err != nil {
			return nil, err
		}
	}
	if jerFiles != nil {
		if err := l.loadJER(c, *jerFiles); err != nil {
			return nil, err
		}
	}

	elapsed := time.Since(start)
	if l.Observer != nil {
		l.Observer.ObserveLoad(label, elapsed)
	}
	l.logger().Info("calibration loaded",
		slog.String("label", label),
		slog.String("jec_version", versionJEC),
		slog.String("jer_version", versionJER),
		slog.Duration("duration", elapsed))
	return c, nil
}

func (l *Loader) loadJEC(c *Corrector, fs JECFileSet) error {
	stages := make([]Stage, 0, len(JECStages))
	for _, path := range fs.Stages() {
		sc, err := jme.LoadSimpleCorrector(path)
		if err != nil {
			return fmt.Errorf("load %s JEC: %w", c.Label, err)
		}
		stages = append(stages, sc)
	}
	unc, err := jme.LoadUncertainty(fs.Uncertainty)
	if err != nil {
		return fmt.Errorf("load %s JEC uncertainty: %w", c.Label, err)
	}
	c.JEC = Some[JetCorrector](NewFactorizedCorrector(stages...))
	c.Uncertainty = Some[UncertaintySource](unc)
	return nil
}

func (l *Loader) loadJER(c *Corrector, fs JERFileSet) error {
	res, err := jme.LoadResolution(fs.PtResolution)
	if err != nil {
		return fmt.Errorf("load %s JER resolution: %w", c.Label, err)
	}
	sf, err := jme.LoadScaleFactor(fs.SF)
	if err != nil {
		return fmt.Errorf("load %s JER scale factor: %w", c.Label, err)
	}
	c.Resolution = Some[ResolutionSource](res)
	c.ScaleFactor = Some[ScaleFactorSource](sf)
	return nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
