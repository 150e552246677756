// Package githubcli wraps the GitHub CLI (gh).
//
// Profile carries the ordered classification table for gh output; Client
// exposes typed repository and pull request operations that run through the
// execshell gateway and decode gh's JSON output.
package githubcli
