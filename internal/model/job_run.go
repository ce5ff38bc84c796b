package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

type JobRunStatus string

const (
	JobRunRunning   JobRunStatus = "running"
	JobRunCompleted JobRunStatus = "completed"
	JobRunFailed    JobRunStatus = "failed"
)

// JobRun records one execution on the job fabric. Observational only; the
// queue's own state is what the coordinator queries.
type JobRun struct {
	ID           uint           `gorm:"primaryKey"`
	JobID        string         `gorm:"type:varchar(64);not null;index"`
	Kind         string         `gorm:"type:varchar(50);not null"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	Status       JobRunStatus   `gorm:"type:varchar(50);not null"`
	Output       sql.NullString `gorm:"type:text"`
	ErrorMessage sql.NullString `gorm:"type:text"`
	StartedAt    time.Time      `gorm:"not null"`
	CompletedAt  sql.NullTime
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (JobRun) TableName() string {
	return "job_runs"
}
