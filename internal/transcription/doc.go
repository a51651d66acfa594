// Package transcription sends audio files to an OpenAI-compatible speech to
// text endpoint and writes the returned text next to the source file.
//
// The client performs exactly one request per call. Retrying a failed
// transcription is a job-level decision owned by the worker.
package transcription
