package types

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a background job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further status changes will happen
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCanceled
}

// Job is a server-side background task (ingestion, generation, ...)
type Job struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Type        string          `json:"job_type"`
	Status      JobStatus       `json:"status"`
	ParentJobID string          `json:"parent_job_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SubmitJobParams is the body of a job submission
type SubmitJobParams struct {
	ProjectID   string          `json:"project_id"`
	Type        string          `json:"job_type"`
	ParentJobID string          `json:"parent_job_id,omitempty"`
	SourceID    string          `json:"source_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}
