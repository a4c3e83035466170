// Package app wires one bpkupdate run.
//
// # Run Flow
//
//	1. Validate the run options and select the active corrections
//	2. Expand and check the input and output paths
//	3. Load every calibration label into a correction.Registry
//	4. Open the input, clone its schema into the output
//	5. Run the correction.Iterator, then Commit (or Abort on error)
//	6. Write the run summary and the metrics textfile
//
// Configuration errors surface before any dataset is opened, and a failed
// run never leaves an output file behind.
//
// # Usage
//
//	a, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer a.Close(ctx)
//	summary, err := a.Run(ctx, opts)
package app
