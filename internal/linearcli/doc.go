// Package linearcli wraps the third-party linearis CLI for Linear issues and teams.
//
// Issue states are passed through verbatim: linearis resolves both state
// names and state IDs, so the client applies no restriction of its own.
package linearcli
