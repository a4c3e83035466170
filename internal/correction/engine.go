package correction

import "bpkupdate/internal/jme"

// Correct fills the output fields of jet from the components present in c.
// Jets outside every calibration bin get the neutral values of the formula
// library; Correct never fails.
func Correct(jet *Jet, rho float64, c *Corrector) {
	if c == nil {
		return
	}
	factor := 1.0
	if jec, ok := c.JEC.Get(); ok {
		factor = jec.Correction(jme.Input{
			Eta:  jet.Eta,
			Phi:  jet.Phi,
			Pt:   jet.RawPt,
			Area: jet.Area,
			Rho:  rho,
		})
		jet.CorrectionFactor = factor
		if unc, ok := c.Uncertainty.Get(); ok {
			jet.Uncertainty = unc.Uncertainty(jet.Eta, jet.RawPt*factor)
		}
	}
	if res, ok := c.Resolution.Get(); ok {
		pt := jet.RawPt * factor
		jet.JERPt = res.Resolution(pt, jet.Eta, rho)
		if sf, ok := c.ScaleFactor.Get(); ok {
			jet.JERScale = sf.ScaleFactor(pt, jet.Eta, rho, jme.Nominal)
			jet.JERScaleUp = sf.ScaleFactor(pt, jet.Eta, rho, jme.Up)
			jet.JERScaleDown = sf.ScaleFactor(pt, jet.Eta, rho, jme.Down)
		}
	}
}
