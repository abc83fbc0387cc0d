// Package report persists a run's result. JSON is the default format; xlsx
// and docx exports render the same fields for people who live in office
// tools.
//
// Writes are atomic (temp file plus rename) and serialized per output
// directory with an advisory file lock, so a watcher and a manual
// "echoes process" never interleave output in the same place.
package report
