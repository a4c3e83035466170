package correction

import (
	apperrors "bpkupdate/internal/errors"
)

// ShouldRunJEC reports whether energy corrections are requested.
func ShouldRunJEC(cfg RunConfiguration) (bool, error) {
	if !cfg.RunJEC {
		return false, nil
	}
	if cfg.JECVersion == "" {
		return false, apperrors.NewConfigError("JEC requested but no JEC version given", nil).
			WithContext("flag", "jecversion")
	}
	return true, nil
}

// ShouldRunJER reports whether resolution corrections are requested.
func ShouldRunJER(cfg RunConfiguration) (bool, error) {
	if !cfg.RunJER {
		return false, nil
	}
	if cfg.JERVersion == "" {
		return false, apperrors.NewConfigError("JER requested but no JER version given", nil).
			WithContext("flag", "jerversion")
	}
	return true, nil
}

// Selection is the outcome of the selector for a run.
type Selection struct {
	JECVersion  string
	JERVersion  string
	Collections []string
}

// Active reports whether any correction will be applied.
func (s Selection) Active() bool {
	return s.JECVersion != "" || s.JERVersion != ""
}

// Select validates cfg and returns the versions to load. An inactive
// correction has an empty version.
func Select(cfg RunConfiguration) (Selection, error) {
	jec, err := ShouldRunJEC(cfg)
	if err != nil {
		return Selection{}, err
	}
	jer, err := ShouldRunJER(cfg)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Collections: cfg.Collections()}
	if jec {
		sel.JECVersion = cfg.JECVersion
	}
	if jer {
		sel.JERVersion = cfg.JERVersion
	}
	return sel, nil
}
