// Package outcome maps the terminal result of a command to a process exit
// status. Command handlers return errors; only main terminates the process.
package outcome
