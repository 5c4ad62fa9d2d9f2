package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job status enum values
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is one durable unit of asynchronous work. The jobs table is the
// queue's source of truth; delivery is at-least-once, so handlers must be
// idempotent on their side effects.
type Job struct {
	gorm.Model
	Type        string         `gorm:"not null;index" json:"type"`
	Payload     datatypes.JSON `json:"payload"`
	Status      string         `gorm:"not null;type:varchar(20);default:'queued';index:idx_jobs_due" json:"status"`
	RunAt       time.Time      `gorm:"not null;index:idx_jobs_due" json:"run_at"`
	Attempts    int            `gorm:"default:0" json:"attempts"`
	MaxAttempts int            `gorm:"default:3" json:"max_attempts"`
	LastError   string         `gorm:"type:text" json:"last_error,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}
