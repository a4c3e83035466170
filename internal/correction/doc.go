// Package correction applies updated jet energy calibrations to existing
// event records.
//
// A run goes through four steps:
//
//  1. ShouldRunJEC / ShouldRunJER decide which corrections are active.
//  2. A Loader resolves the versioned calibration files of a jet algorithm
//     label and builds a Corrector; a Registry owns one Corrector per label
//     for the duration of the run.
//  3. Correct evaluates one jet against a Corrector.
//  4. An Iterator walks every event of a Source, corrects every jet of every
//     active collection and forwards the event to a Sink.
//
// All calibration files are read before the first event; the event loop is
// sequential and touches no files.
package correction
