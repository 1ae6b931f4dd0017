package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// MilestoneInput describes a deliverable of a job.
type MilestoneInput struct {
	JobID       string     `json:"job_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	DueDate     *time.Time `json:"due_date"`
}

// PaymentInput records a payment the external processor already handled.
type PaymentInput struct {
	JobID       string               `json:"job_id"`
	MilestoneID *string              `json:"milestone_id"`
	PayeeID     string               `json:"payee_id"`
	Amount      float64              `json:"amount"`
	Currency    string               `json:"currency"`
	Status      domain.PaymentStatus `json:"status"`
	ProviderRef string               `json:"provider_ref"`
}

// PaymentService keeps milestones and payment records.
type PaymentService interface {
	CreateMilestone(ctx context.Context, actorID string, in MilestoneInput) (*domain.Milestone, error)
	ListMilestones(ctx context.Context, jobID string) ([]domain.Milestone, error)
	UpdateMilestoneStatus(ctx context.Context, id string, status domain.MilestoneStatus) (*domain.Milestone, error)
	RecordPayment(ctx context.Context, payerID string, in PaymentInput) (*domain.Payment, error)
	ListPayments(ctx context.Context, userID string) ([]domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error)
}

type paymentService struct {
	milestones repository.MilestoneRepository
	payments   repository.PaymentRepository
	jobs       repository.JobRepository
}

func NewPaymentService(milestones repository.MilestoneRepository, payments repository.PaymentRepository, jobs repository.JobRepository) PaymentService {
	return &paymentService{
		milestones: milestones,
		payments:   payments,
		jobs:       jobs,
	}
}

func (s *paymentService) CreateMilestone(ctx context.Context, actorID string, in MilestoneInput) (*domain.Milestone, error) {
	if strings.TrimSpace(in.JobID) == "" {
		return nil, invalidf("job id is required")
	}
	if err := checkLength("title", in.Title, 3, 200); err != nil {
		return nil, err
	}
	if err := checkPositive("amount", in.Amount); err != nil {
		return nil, err
	}
	job, err := s.jobs.Get(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, fmt.Errorf("%w: only the job owner can add milestones", ErrForbidden)
	}

	milestone := &domain.Milestone{
		JobID:       in.JobID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		DueDate:     in.DueDate,
		Status:      domain.MilestoneStatusPending,
	}
	if err := s.milestones.Create(ctx, milestone); err != nil {
		return nil, err
	}
	return milestone, nil
}

func (s *paymentService) ListMilestones(ctx context.Context, jobID string) ([]domain.Milestone, error) {
	return s.milestones.ListByJob(ctx, jobID)
}

func (s *paymentService) UpdateMilestoneStatus(ctx context.Context, id string, status domain.MilestoneStatus) (*domain.Milestone, error) {
	if !status.Valid() {
		return nil, invalidf("unknown milestone status %q", status)
	}
	return s.milestones.UpdateStatus(ctx, id, status)
}

func (s *paymentService) RecordPayment(ctx context.Context, payerID string, in PaymentInput) (*domain.Payment, error) {
	if strings.TrimSpace(in.JobID) == "" {
		return nil, invalidf("job id is required")
	}
	if strings.TrimSpace(in.PayeeID) == "" {
		return nil, invalidf("payee is required")
	}
	if err := checkPositive("amount", in.Amount); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if !currencyPattern.MatchString(currency) {
		return nil, invalidf("currency must be a 3-letter code")
	}
	status := in.Status
	if status == "" {
		status = domain.PaymentStatusPending
	}
	if !status.Valid() {
		return nil, invalidf("unknown payment status %q", status)
	}

	payment := &domain.Payment{
		JobID:       in.JobID,
		MilestoneID: in.MilestoneID,
		PayerID:     payerID,
		PayeeID:     in.PayeeID,
		Amount:      in.Amount,
		Currency:    currency,
		Status:      status,
		ProviderRef: strings.TrimSpace(in.ProviderRef),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, userID string) ([]domain.Payment, error) {
	return s.payments.ListForUser(ctx, userID)
}

func (s *paymentService) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	if !status.Valid() {
		return nil, invalidf("unknown payment status %q", status)
	}
	return s.payments.UpdateStatus(ctx, id, status)
}
