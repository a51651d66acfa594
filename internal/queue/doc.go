// Package queue persists transcription jobs, monitored folders, the activity
// log, and runtime settings in SQLite.
//
// The Store manages the database connection, applies embedded migrations,
// and exposes the job status transitions the worker relies on: atomic claim
// of the oldest queued job, completion, requeue with an incremented retry
// count, and terminal failure. file_path is unique across all jobs, so a
// file is only ever enqueued once no matter how many scans observe it.
//
// Timestamps are stored as fixed-width UTC strings so lexical ordering
// matches chronological ordering.
package queue
