// Package services defines shared utilities consumed by the worker, the
// scanner, and the transcription boundary.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, folder IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from the
//     transcription provider carry a consistent classification.
package services
