// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor runs vendor CLIs (gh, flyctl, supabase, linearis) through a
// CommandRunner, captures their output without treating a non-zero exit as a
// Go error, and classifies failures into a closed set of ErrorKind values
// using the ordered rules of a ToolProfile.
package execshell
