// Package flycli wraps flyctl for app status, deployment, secrets and teardown.
package flycli
