// Package workflow runs the single transcription worker.
//
// The Manager polls the job store for the oldest queued job, claims it with a
// conditional status update, sends it to the transcriber, and persists the
// outcome. A failed attempt returns the job to the queue with an incremented
// retry count until the retry budget is spent, after which the job is marked
// Error. Only one job is ever in flight.
//
// The loop observes cancellation while idle, between jobs, and during the
// transcription request itself. A job interrupted by shutdown is returned to
// the queue without consuming its retry budget.
package workflow
