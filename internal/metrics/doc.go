// Package metrics exposes pipeline counters and histograms on a private
// Prometheus registry. A nil *Recorder is valid and records nothing, so
// components can hold one unconditionally.
package metrics
