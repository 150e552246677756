// Package cli constructs the dovetail command-line interface, wiring the
// Cobra command hierarchy, the viper configuration loader with its embedded
// defaults, and structured logging. Commands reach the vendor CLIs only
// through the execshell gateway.
package cli
