// Package ntuple reads and writes the per-event datasets that hold jet
// collections.
//
// Two backends share the same Source and Sink contracts: ROOT files written
// by bprimeKit (through go-hep's groot) and an in-memory backend used for
// tests and dry runs. A Sink never leaves partial output behind: data goes
// to a temporary file that Commit renames and Abort removes.
package ntuple
