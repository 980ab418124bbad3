package types

import (
	"encoding/json"
	"time"
)

// QueryProgram is a saved, executable query. The program body is opaque.
type QueryProgram struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Query        string          `json:"query,omitempty"`
	Program      json.RawMessage `json:"query_program,omitempty"`
	ProjectID    string          `json:"project_id"`
	DatasetID    string          `json:"dataset_id,omitempty"`
	Published    bool            `json:"published"`
	PublicAccess bool            `json:"public,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateQueryProgramParams is the body of a query program create call
type CreateQueryProgramParams struct {
	Name      string          `json:"name"`
	Query     string          `json:"query,omitempty"`
	Program   json.RawMessage `json:"query_program,omitempty"`
	ProjectID string          `json:"project_id"`
	DatasetID string          `json:"dataset_id,omitempty"`
}

// UpdateQueryProgramParams is the body of a query program update call
type UpdateQueryProgramParams struct {
	Name    *string         `json:"name,omitempty"`
	Query   *string         `json:"query,omitempty"`
	Program json.RawMessage `json:"query_program,omitempty"`
}

// ExecuteParams carries runtime parameters for a query program run
type ExecuteParams struct {
	Parameters map[string]any `json:"parameters,omitempty"`
}

// QueryResult is the JSON result of a non-streaming execution
type QueryResult struct {
	Data     json.RawMessage `json:"data"`
	Columns  []string        `json:"columns,omitempty"`
	RowCount int             `json:"row_count,omitempty"`
}

// GenerateParams asks the API to draft query programs from a prompt
type GenerateParams struct {
	ProjectID string `json:"project_id"`
	Prompt    string `json:"prompt,omitempty"`
	Count     int    `json:"count,omitempty"`
}
