package domain

import "time"

type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusSubmitted  MilestoneStatus = "submitted"
	MilestoneStatusApproved   MilestoneStatus = "approved"
	MilestoneStatusPaid       MilestoneStatus = "paid"
)

func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusPending, MilestoneStatusInProgress, MilestoneStatusSubmitted, MilestoneStatusApproved, MilestoneStatusPaid:
		return true
	}
	return false
}

// Milestone splits a job's budget into deliverables.
type Milestone struct {
	ID          string          `json:"id,omitempty"`
	JobID       string          `json:"job_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Amount      float64         `json:"amount"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Status      MilestoneStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at,omitzero"`
	UpdatedAt   time.Time       `json:"updated_at,omitzero"`
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment records money moved by the external payment processor.
// ProviderRef is the processor's intent/charge identifier and is never interpreted here.
type Payment struct {
	ID          string        `json:"id,omitempty"`
	JobID       string        `json:"job_id"`
	MilestoneID *string       `json:"milestone_id,omitempty"`
	PayerID     string        `json:"payer_id"`
	PayeeID     string        `json:"payee_id"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"status"`
	ProviderRef string        `json:"provider_ref,omitempty"`
	CreatedAt   time.Time     `json:"created_at,omitzero"`
	UpdatedAt   time.Time     `json:"updated_at,omitzero"`
}
