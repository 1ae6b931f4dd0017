package rest

import (
	"context"
	"fmt"

	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

const (
	milestonesTable = "milestones"
	paymentsTable   = "payments"
)

type MilestoneRepository struct {
	client *baas.Client
}

func NewMilestoneRepository(client *baas.Client) repository.MilestoneRepository {
	return &MilestoneRepository{client: client}
}

func (r *MilestoneRepository) Create(ctx context.Context, milestone *domain.Milestone) error {
	return insertOne(ctx, r.client, milestonesTable, milestone)
}

func (r *MilestoneRepository) Get(ctx context.Context, id string) (*domain.Milestone, error) {
	return getByID[domain.Milestone](ctx, r.client, milestonesTable, id)
}

func (r *MilestoneRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Milestone, error) {
	resp, err := r.client.From(milestonesTable).
		Select("*").
		Eq("job_id", jobID).
		Order("created_at", true).
		Execute(ctx)
	if err != nil {
		return nil, translate(err, "list milestones")
	}
	return decodeList[domain.Milestone](resp)
}

func (r *MilestoneRepository) UpdateStatus(ctx context.Context, id string, status domain.MilestoneStatus) (*domain.Milestone, error) {
	return updateByID[domain.Milestone](ctx, r.client, milestonesTable, id, newStatusPatch(status))
}

type PaymentRepository struct {
	client *baas.Client
}

func NewPaymentRepository(client *baas.Client) repository.PaymentRepository {
	return &PaymentRepository{client: client}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return insertOne(ctx, r.client, paymentsTable, payment)
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	return getByID[domain.Payment](ctx, r.client, paymentsTable, id)
}

// ListForUser returns payments the user made or received, newest first.
func (r *PaymentRepository) ListForUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	resp, err := r.client.From(paymentsTable).
		Select("*").
		Or(fmt.Sprintf("payer_id.eq.%s,payee_id.eq.%s", userID, userID)).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, translate(err, "list payments")
	}
	return decodeList[domain.Payment](resp)
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	return updateByID[domain.Payment](ctx, r.client, paymentsTable, id, newStatusPatch(status))
}
