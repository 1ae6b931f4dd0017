package domain

import (
	"strings"
	"time"
)

type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusOpen, JobStatusInProgress, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// ParseJobStatuses splits a comma separated status list, skipping blank entries.
func ParseJobStatuses(s string) []JobStatus {
	var out []JobStatus
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, JobStatus(part))
		}
	}
	return out
}

type BudgetType string

const (
	BudgetFixed  BudgetType = "fixed"
	BudgetHourly BudgetType = "hourly"
)

// Job is a posting created by a client.
type Job struct {
	ID          string     `json:"id,omitempty"`
	ClientID    string     `json:"client_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Skills      []string   `json:"skills,omitempty"`
	BudgetType  BudgetType `json:"budget_type"`
	BudgetMin   float64    `json:"budget_min"`
	BudgetMax   float64    `json:"budget_max"`
	Status      JobStatus  `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitzero"`
	UpdatedAt   time.Time  `json:"updated_at,omitzero"`
}

// JobPatch holds the editable job fields; nil fields are left untouched.
type JobPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Skills      *[]string  `json:"skills,omitempty"`
	BudgetMin   *float64   `json:"budget_min,omitempty"`
	BudgetMax   *float64   `json:"budget_max,omitempty"`
	Status      *JobStatus `json:"status,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// JobFilter narrows job listings.
type JobFilter struct {
	Status   JobStatus
	ClientID string
	Category string
	Search   string
	Limit    int
	Offset   int

	// Statuses matches jobs in any of the listed statuses.
	Statuses []JobStatus

	// MinBudget keeps jobs whose budget range reaches it, MaxBudget those whose
	// range starts at or below it. Zero leaves a bound unset.
	MinBudget float64
	MaxBudget float64
}
