// Package log is a small leveled wrapper around the standard library logger.
//
// Every component obtains a named logger once and logs through it:
//
//	l := log.ForService("catalog")
//	l.Infof("fetched page %d", page)
//	l.With("catalog", "service", "page", 2).Debugf("backfill step")
//
// Lines look like:
//
//	2026/10/19 10:00:00.000000 INFO [catalog>] fetched page 2 catalog=service
//
// Debug output is off by default. Enable it for everything with
// SetGlobalDebug(true) (the --debug flag) or for a single component with
// EnableDebugFor("cache").
//
// The package name collides with the standard library on purpose; alias one
// of them when both are needed.
//
// All exported functions are safe for concurrent use. Tests redirect output
// with SetOutput(&buf).
package log
