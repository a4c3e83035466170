package correction

import "bpkupdate/internal/jme"

// Slot holds an optional component. The zero value is empty.
type Slot[T any] struct {
	value T
	ok    bool
}

// Some returns a filled slot.
func Some[T any](v T) Slot[T] {
	return Slot[T]{value: v, ok: true}
}

// Get returns the value and whether the slot is filled.
func (s Slot[T]) Get() (T, bool) {
	return s.value, s.ok
}

// Present reports whether the slot is filled.
func (s Slot[T]) Present() bool { return s.ok }

// JetCorrector computes the full multiplicative energy correction of a jet.
type JetCorrector interface {
	Correction(in jme.Input) float64
}

// UncertaintySource returns the fractional energy-scale uncertainty.
type UncertaintySource interface {
	Uncertainty(eta, pt float64) float64
}

// ResolutionSource returns the relative pt resolution.
type ResolutionSource interface {
	Resolution(pt, eta, rho float64) float64
}

// ScaleFactorSource returns the data/simulation resolution scale factor.
type ScaleFactorSource interface {
	ScaleFactor(pt, eta, rho float64, v jme.Variation) float64
}

// Corrector bundles the calibration components of one jet algorithm label.
// JEC and Uncertainty are filled together, as are Resolution and ScaleFactor.
type Corrector struct {
	Label       string
	JECVersion  string
	JERVersion  string
	JEC         Slot[JetCorrector]
	Uncertainty Slot[UncertaintySource]
	Resolution  Slot[ResolutionSource]
	ScaleFactor Slot[ScaleFactorSource]
}

// Empty reports whether the corrector would leave every jet untouched.
func (c *Corrector) Empty() bool {
	return c == nil || (!c.JEC.Present() && !c.Resolution.Present())
}
