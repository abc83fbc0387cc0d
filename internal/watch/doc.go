// Package watch turns new recordings in a directory into pipeline
// submissions. Files are reported once their writes have settled, so a
// recording still being copied in is not picked up half-written.
package watch
