package repository

import (
	"context"
	"errors"

	"gigmarket/internal/domain"
)

// ErrNotFound is returned when the addressed row or key does not exist.
var ErrNotFound = errors.New("not found")

// ProfileRepository exposes persistence operations for user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	Insert(ctx context.Context, profile *domain.Profile) error
	// InsertIfMissing creates the row unless one with the same ID exists.
	// An existing row is left untouched and created reports false.
	InsertIfMissing(ctx context.Context, profile *domain.Profile) (created bool, err error)
	Update(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error)
	ListByRole(ctx context.Context, role domain.Role, limit, offset int) ([]domain.Profile, error)
}

// JobRepository exposes persistence operations for job postings.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error)
	Update(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error)
	Delete(ctx context.Context, id string) error
}

// ProposalRepository exposes persistence operations for proposals.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *domain.Proposal) error
	Get(ctx context.Context, id string) (*domain.Proposal, error)
	ListByJob(ctx context.Context, jobID string) ([]domain.Proposal, error)
	ListByFreelancer(ctx context.Context, freelancerID string) ([]domain.Proposal, error)
	UpdateStatus(ctx context.Context, id string, status domain.ProposalStatus) (*domain.Proposal, error)
}

// MessageRepository exposes persistence operations for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)
	Conversation(ctx context.Context, userA, userB string, limit int) ([]domain.Message, error)
	Inbox(ctx context.Context, userID string, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, id string) error
}

// MilestoneRepository exposes persistence operations for job milestones.
type MilestoneRepository interface {
	Create(ctx context.Context, milestone *domain.Milestone) error
	Get(ctx context.Context, id string) (*domain.Milestone, error)
	ListByJob(ctx context.Context, jobID string) ([]domain.Milestone, error)
	UpdateStatus(ctx context.Context, id string, status domain.MilestoneStatus) (*domain.Milestone, error)
}

// PaymentRepository exposes persistence operations for payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Get(ctx context.Context, id string) (*domain.Payment, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error)
}

// SnapshotRepository is small local key/value persistence for client state.
type SnapshotRepository interface {
	Init(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
