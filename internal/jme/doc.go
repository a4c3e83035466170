// Package jme reads the JetMET calibration text formats and evaluates them.
//
// Three kinds of file share one layout, a definition line in braces followed by
// one record per bin:
//
//	{1 JetEta 1 JetPt max(0.0001,pow(x,[0])) Correction L2Relative}
//	-5.191 -4.889 5 10 6500 1.0432 ...
//
// The definition names the binning variables, the parameter variables (mapped
// to x, y, z, t in the formula) and a TFormula expression. Each record carries
// the bin edges, a value count, the parameter variable ranges and the formula
// parameters. Uncertainty and scale-factor files reuse the layout but store
// tabulated values instead of formula parameters.
//
// Evaluation never fails per jet: a jet outside every bin gets the neutral
// value of the quantity (correction 1, uncertainty 0, resolution 0, scale
// factor 1).
package jme
