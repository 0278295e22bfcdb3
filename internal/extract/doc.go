// Package extract runs the deck conversion pipeline.
//
// A run is a two-phase batch: phase one stages the collection database,
// cleans every note, and accumulates the set of media filenames the cleaned
// corpus references; phase two writes the output store and copies exactly
// the referenced media out of the archive under their real filenames. The
// reference set is computed in full before any media is touched, so
// materialization never depends on per-note state.
//
// The output directory is guarded by a lock file for the duration of the
// run. Fatal failures (unreadable archive, undecodable manifest) abort;
// per-record problems are skipped and surfaced in the run report so data
// loss cannot pass unnoticed.
package extract
