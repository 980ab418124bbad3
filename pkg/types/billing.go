package types

import (
	"encoding/json"
	"time"
)

// Subscription is an organization's billing plan. Billing rules live server-side.
type Subscription struct {
	ID                 string          `json:"id"`
	OrganizationID     string          `json:"organization_id"`
	PlanID             string          `json:"plan_id"`
	Status             string          `json:"status"`
	CurrentPeriodStart time.Time       `json:"current_period_start"`
	CurrentPeriodEnd   time.Time       `json:"current_period_end"`
	Details            json.RawMessage `json:"details,omitempty"`
}

// Usage is metered consumption for the current billing period
type Usage struct {
	OrganizationID string          `json:"organization_id"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	APICalls       int64           `json:"api_calls"`
	LLMTokens      int64           `json:"llm_tokens"`
	Breakdown      json.RawMessage `json:"breakdown,omitempty"`
}

// Plan is a purchasable subscription tier
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Interval string   `json:"interval"`
	Features []string `json:"features,omitempty"`
}

// Platform is an integration target (database engine, API type) datasources can use
type Platform struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Credential is stored connection material. The secret itself never leaves the API.
type Credential struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	OrganizationID string    `json:"organization_id"`
	DatasourceID   string    `json:"datasource_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
