// Package scanner discovers audio files under monitored folders and enqueues
// them as transcription jobs.
//
// A scan walks every folder with monitoring enabled, keeps files whose
// extension is in the supported set, canonicalizes their paths, and inserts
// jobs per folder in one transaction. Paths that already have a job are
// skipped, so repeated scans are idempotent. Folders that are missing or
// unreadable produce a warning in the activity log and are skipped.
//
// Symlinked directories are never followed. Symlinked files are included
// when they resolve to a regular file.
package scanner
