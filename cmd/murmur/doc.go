// Package main hosts the murmur CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into calls
// against the daemon's HTTP API: folder registration, scans, job listing and
// retries, the activity log, and model settings. When no daemon answers, the
// same commands operate on the job database directly so the CLI stays useful
// for setup and inspection. `murmur daemon` runs the daemon in the
// foreground.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
