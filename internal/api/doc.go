// Package api exposes the murmur HTTP surface.
//
// Service holds the folder, scan, job, log, and settings operations shared by
// the HTTP handlers and by CLI commands that run without a daemon. NewRouter
// mounts those operations on a chi router with request logging, request ids,
// and panic recovery. Client is the matching HTTP client the CLI uses when a
// daemon is reachable. Responses use a {"data": ...} envelope on success and
// {"error": {"code", "message"}} on failure.
package api
