package api

import "murmur/internal/workflow"

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// FolderRequest registers a monitored folder.
type FolderRequest struct {
	Path string `json:"path"`
}

// MonitoringRequest toggles monitoring for a folder.
type MonitoringRequest struct {
	MonitoringEnabled *bool `json:"monitoring_enabled"`
}

// ScanResponse reports how many jobs a scan queued.
type ScanResponse struct {
	NewJobs int `json:"new_jobs"`
}

// RetryRequest re-queues errored jobs. An empty list targets every errored job.
type RetryRequest struct {
	IDs []int64 `json:"ids"`
}

// RetryResponse reports how many jobs were re-queued.
type RetryResponse struct {
	Updated int64 `json:"updated"`
}

// Settings is the user-adjustable configuration stored in the database.
type Settings struct {
	WhisperModel string `json:"whisper_model"`
}

// StatusResponse summarizes worker and queue state.
type StatusResponse struct {
	Worker     workflow.StatusSummary `json:"worker"`
	Settings   Settings               `json:"settings"`
	Extensions []string               `json:"extensions,omitempty"`
}
