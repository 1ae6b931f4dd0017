package domain

import "time"

type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusRejected  ProposalStatus = "rejected"
	ProposalStatusWithdrawn ProposalStatus = "withdrawn"
)

// Proposal is a freelancer's bid on a job.
type Proposal struct {
	ID                string         `json:"id,omitempty"`
	JobID             string         `json:"job_id"`
	FreelancerID      string         `json:"freelancer_id"`
	CoverLetter       string         `json:"cover_letter"`
	BidAmount         float64        `json:"bid_amount"`
	EstimatedDuration string         `json:"estimated_duration,omitempty"`
	Status            ProposalStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at,omitzero"`
	UpdatedAt         time.Time      `json:"updated_at,omitzero"`
}
