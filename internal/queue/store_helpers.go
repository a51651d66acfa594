package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, folder_id, file_name, file_path, status, date_added, date_completed, error_message, retry_count, output_path, updated_at"

const folderColumns = "id, path, monitoring_enabled, created_at"

// timeLayout is fixed width so that string comparison orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job          Job
		statusStr    string
		addedRaw     string
		completedRaw sql.NullString
		errorMessage sql.NullString
		outputPath   sql.NullString
		updatedRaw   string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.FolderID,
		&job.FileName,
		&job.FilePath,
		&statusStr,
		&addedRaw,
		&completedRaw,
		&errorMessage,
		&job.RetryCount,
		&outputPath,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = JobStatus(statusStr)
	job.ErrorMessage = errorMessage.String
	job.OutputPath = outputPath.String
	if added, err := parseTimeString(addedRaw); err == nil {
		job.DateAdded = added
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			job.DateCompleted = &completed
		}
	}
	return &job, nil
}

func scanFolder(scanner rowScanner) (*Folder, error) {
	var (
		folder     Folder
		enabled    int
		createdRaw string
	)
	if err := scanner.Scan(&folder.ID, &folder.Path, &enabled, &createdRaw); err != nil {
		return nil, err
	}
	folder.MonitoringEnabled = enabled != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		folder.CreatedAt = created
	}
	return &folder, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func nowString() string {
	return formatTime(time.Now())
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func int64Args(ids []int64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
