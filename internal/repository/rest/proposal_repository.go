package rest

import (
	"context"

	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

const proposalsTable = "proposals"

type ProposalRepository struct {
	client *baas.Client
}

func NewProposalRepository(client *baas.Client) repository.ProposalRepository {
	return &ProposalRepository{client: client}
}

func (r *ProposalRepository) Create(ctx context.Context, proposal *domain.Proposal) error {
	return insertOne(ctx, r.client, proposalsTable, proposal)
}

func (r *ProposalRepository) Get(ctx context.Context, id string) (*domain.Proposal, error) {
	return getByID[domain.Proposal](ctx, r.client, proposalsTable, id)
}

func (r *ProposalRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Proposal, error) {
	return r.listBy(ctx, "job_id", jobID)
}

func (r *ProposalRepository) ListByFreelancer(ctx context.Context, freelancerID string) ([]domain.Proposal, error) {
	return r.listBy(ctx, "freelancer_id", freelancerID)
}

func (r *ProposalRepository) UpdateStatus(ctx context.Context, id string, status domain.ProposalStatus) (*domain.Proposal, error) {
	return updateByID[domain.Proposal](ctx, r.client, proposalsTable, id, newStatusPatch(status))
}

func (r *ProposalRepository) listBy(ctx context.Context, column, value string) ([]domain.Proposal, error) {
	resp, err := r.client.From(proposalsTable).
		Select("*").
		Eq(column, value).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, translate(err, "list proposals")
	}
	return decodeList[domain.Proposal](resp)
}
