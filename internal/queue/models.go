package queue

import (
	"strings"
	"time"
)

// JobStatus represents a transcription job lifecycle state.
type JobStatus string

const (
	StatusQueued       JobStatus = "Queued"
	StatusTranscribing JobStatus = "Transcribing"
	StatusComplete     JobStatus = "Complete"
	StatusError        JobStatus = "Error"
)

var allStatuses = []JobStatus{StatusQueued, StatusTranscribing, StatusComplete, StatusError}

// AllStatuses returns every job status in lifecycle order.
func AllStatuses() []JobStatus {
	out := make([]JobStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(value string) (JobStatus, bool) {
	for _, status := range allStatuses {
		if strings.EqualFold(string(status), strings.TrimSpace(value)) {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the worker will never pick the job up again.
func (s JobStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// Job is one audio file's transcription record.
type Job struct {
	ID            int64      `json:"id"`
	FolderID      int64      `json:"folder_id"`
	FileName      string     `json:"file_name"`
	FilePath      string     `json:"file_path"`
	Status        JobStatus  `json:"status"`
	DateAdded     time.Time  `json:"date_added"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	RetryCount    int        `json:"retry_count"`
	OutputPath    string     `json:"output_path,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewJob describes a discovered file awaiting insertion.
type NewJob struct {
	FileName string
	FilePath string
}

// Folder is a monitored directory.
type Folder struct {
	ID                int64     `json:"id"`
	Path              string    `json:"path"`
	MonitoringEnabled bool      `json:"monitoring_enabled"`
	CreatedAt         time.Time `json:"created_at"`
}

// LogLevel is the severity of an activity log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "Info"
	LevelWarning LogLevel = "Warning"
	LevelError   LogLevel = "Error"
)

// LogEntry is one line of the user-visible activity log.
type LogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total        int `json:"total"`
	Queued       int `json:"queued"`
	Transcribing int `json:"transcribing"`
	Complete     int `json:"complete"`
	Error        int `json:"error"`
}

// DatabaseHealth captures diagnostic information about the database file.
type DatabaseHealth struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    uint     `json:"schema_version"`
	SchemaDirty      bool     `json:"schema_dirty"`
	MissingTables    []string `json:"missing_tables,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalJobs        int      `json:"total_jobs"`
	Error            string   `json:"error,omitempty"`
}
