package ntuple

import "bpkupdate/internal/correction"

// Source is an input dataset.
type Source interface {
	correction.Source
	Close() error
}

// Sink is an output dataset. Exactly one of Commit or Abort ends it.
type Sink interface {
	correction.Sink
	// Commit flushes every written event and publishes the output.
	Commit() error
	// Abort discards the output.
	Abort() error
}

var (
	_ Source = (*MemorySource)(nil)
	_ Sink   = (*MemorySink)(nil)
	_ Source = (*ROOTSource)(nil)
	_ Sink   = (*ROOTSink)(nil)
)
