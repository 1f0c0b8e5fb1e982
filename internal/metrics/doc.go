// Package metrics defines the Recorder abstraction used across index
// building, section generation and publishing, with a no-op default and a
// Prometheus-backed implementation for watch mode.
package metrics
