package workflow

import (
	"context"

	"murmur/internal/logging"
	"murmur/internal/queue"
)

// StatusSummary represents lightweight worker diagnostics.
type StatusSummary struct {
	Running    bool                `json:"running"`
	LastError  string              `json:"last_error,omitempty"`
	LastJob    *queue.Job          `json:"last_job,omitempty"`
	CurrentJob *queue.Job          `json:"current_job,omitempty"`
	Jobs       queue.HealthSummary `json:"jobs"`
}

// Status returns the latest worker information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:    m.running,
		LastJob:    copyJob(m.lastJob),
		CurrentJob: copyJob(m.currentJob),
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	health, err := m.store.Health(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_stats_failed"),
			logging.String(logging.FieldImpact, "status omits job counts"),
		)
	}
	summary.Jobs = health
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	m.lastJob = copyJob(job)
	m.mu.Unlock()
}

func (m *Manager) setCurrentJob(job *queue.Job) {
	m.mu.Lock()
	m.currentJob = copyJob(job)
	m.mu.Unlock()
}

func copyJob(job *queue.Job) *queue.Job {
	if job == nil {
		return nil
	}
	clone := *job
	return &clone
}
