// Package status reports the state of the current project across the vendor
// services: the pull request for the current branch, the Fly.io app, the local
// Supabase stack and the Linear issue being worked on. Sections are collected
// independently so one failing vendor never hides the others.
package status
