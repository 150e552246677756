// Package ui renders human-readable console output: gateway lifecycle events
// routed through zap, classified errors, and section-styled reports. Styling
// is applied only when the destination is a terminal.
package ui
