// Package vendorcli holds the plumbing shared by the vendor CLI wrappers:
// the executor contract, credential injection, JSON decoding of stdout and
// the typed errors every wrapper reports.
package vendorcli
