package types

import (
	"encoding/json"
	"time"
)

// Project groups datasources, datalines and query programs for a team
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	TeamID      string     `json:"team_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// CreateProjectParams is the body of a project create call
type CreateProjectParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TeamID      string `json:"team_id"`
}

// UpdateProjectParams is the body of a project update call. Nil fields are left unchanged.
type UpdateProjectParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Datasource is a connection to an external database, API or uploaded file
type Datasource struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	URI          string    `json:"uri,omitempty"`
	ProjectID    string    `json:"project_id"`
	CredentialID string    `json:"credentials_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateDatasourceParams is the body of a datasource create call
type CreateDatasourceParams struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	URI       string `json:"uri,omitempty"`
}

// UpdateDatasourceParams is the body of a datasource update call
type UpdateDatasourceParams struct {
	Name *string `json:"name,omitempty"`
	URI  *string `json:"uri,omitempty"`
}

// ConnectionTestResult reports whether a datasource is reachable
type ConnectionTestResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Dataline is a typed view over a datasource; Schema and Data are opaque to the SDK
type Dataline struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ProjectID    string          `json:"project_id"`
	DatasourceID string          `json:"dataobject_id,omitempty"`
	Schema       json.RawMessage `json:"schema_code,omitempty"`
	Data         json.RawMessage `json:"data_model,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateDatalineParams is the body of a dataline create call
type CreateDatalineParams struct {
	Name         string          `json:"name"`
	ProjectID    string          `json:"project_id"`
	DatasourceID string          `json:"dataobject_id,omitempty"`
	Schema       json.RawMessage `json:"schema_code,omitempty"`
}

// UpdateDatalineParams is the body of a dataline update call
type UpdateDatalineParams struct {
	Name *string         `json:"name,omitempty"`
	Data json.RawMessage `json:"data_model,omitempty"`
}

// Ontology is a project-level semantic model
type Ontology struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ProjectID   string          `json:"project_id"`
	Definition  json.RawMessage `json:"definition,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateOntologyParams is the body of an ontology create call
type CreateOntologyParams struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ProjectID   string          `json:"project_id"`
	Definition  json.RawMessage `json:"definition,omitempty"`
}
