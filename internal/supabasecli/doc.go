// Package supabasecli wraps the Supabase CLI for project linking, migrations
// and local stack status.
package supabasecli
