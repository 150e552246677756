// Package deploy ships the current project: it runs the quality gate, pushes
// Supabase migrations and deploys the Fly.io app, strictly in that order,
// stopping at the first step that fails.
package deploy
