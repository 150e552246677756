// Package doctor probes the vendor CLIs Dovetail drives: whether each one is
// installed, whether its version satisfies the configured constraint and
// whether it is authenticated. Probes run one at a time with a bounded timeout.
package doctor
