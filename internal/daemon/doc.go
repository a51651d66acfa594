// Package daemon coordinates the long-running murmur process.
//
// It wires configuration, job storage, the scanner, the worker loop, and the
// HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. On start the daemon returns jobs stranded in
// Transcribing by a previous crash to the queue, seeds the model setting, and
// optionally schedules periodic folder scans.
//
// Keep orchestration logic here: scanning and transcription live in their
// own packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
