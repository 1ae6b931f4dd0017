package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

// ProposalInput carries a freelancer's bid.
type ProposalInput struct {
	JobID             string  `json:"job_id"`
	CoverLetter       string  `json:"cover_letter"`
	BidAmount         float64 `json:"bid_amount"`
	EstimatedDuration string  `json:"estimated_duration"`
}

// ProposalService coordinates bids on jobs.
type ProposalService interface {
	Submit(ctx context.Context, freelancerID string, in ProposalInput) (*domain.Proposal, error)
	ListForJob(ctx context.Context, jobID string) ([]domain.Proposal, error)
	ListMine(ctx context.Context, freelancerID string) ([]domain.Proposal, error)
	Accept(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error)
	Reject(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error)
	Withdraw(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error)
}

type proposalService struct {
	proposals repository.ProposalRepository
	jobs      repository.JobRepository
	profiles  repository.ProfileRepository
	logger    *logrus.Logger
}

func NewProposalService(proposals repository.ProposalRepository, jobs repository.JobRepository, profiles repository.ProfileRepository, logger *logrus.Logger) ProposalService {
	if logger == nil {
		logger = logrus.New()
	}
	return &proposalService{
		proposals: proposals,
		jobs:      jobs,
		profiles:  profiles,
		logger:    logger,
	}
}

func (s *proposalService) Submit(ctx context.Context, freelancerID string, in ProposalInput) (*domain.Proposal, error) {
	if strings.TrimSpace(in.JobID) == "" {
		return nil, invalidf("job id is required")
	}
	if err := checkLength("cover letter", in.CoverLetter, 20, 5000); err != nil {
		return nil, err
	}
	if err := checkPositive("bid amount", in.BidAmount); err != nil {
		return nil, err
	}
	if err := requireRole(ctx, s.profiles, freelancerID, domain.RoleFreelancer); err != nil {
		return nil, err
	}

	job, err := s.jobs.Get(ctx, in.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusOpen {
		return nil, invalidf("job is %s and no longer takes proposals", job.Status)
	}
	if job.ClientID == freelancerID {
		return nil, fmt.Errorf("%w: cannot bid on your own job", ErrForbidden)
	}

	proposal := &domain.Proposal{
		JobID:             in.JobID,
		FreelancerID:      freelancerID,
		CoverLetter:       strings.TrimSpace(in.CoverLetter),
		BidAmount:         in.BidAmount,
		EstimatedDuration: strings.TrimSpace(in.EstimatedDuration),
		Status:            domain.ProposalStatusPending,
	}
	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (s *proposalService) ListForJob(ctx context.Context, jobID string) ([]domain.Proposal, error) {
	return s.proposals.ListByJob(ctx, jobID)
}

func (s *proposalService) ListMine(ctx context.Context, freelancerID string) ([]domain.Proposal, error) {
	return s.proposals.ListByFreelancer(ctx, freelancerID)
}

// Accept marks the proposal accepted and then moves the job to in_progress. The second
// write is not rolled back into the first: on failure the accepted proposal is returned
// with the error.
func (s *proposalService) Accept(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error) {
	proposal, job, err := s.pendingForOwner(ctx, actorID, proposalID)
	if err != nil {
		return nil, err
	}

	accepted, err := s.proposals.UpdateStatus(ctx, proposal.ID, domain.ProposalStatusAccepted)
	if err != nil {
		return nil, err
	}
	status := domain.JobStatusInProgress
	if _, err := s.jobs.Update(ctx, job.ID, domain.JobPatch{Status: &status}); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"proposal_id": proposal.ID,
			"job_id":      job.ID,
		}).Error("job status not updated after accepting proposal")
		return accepted, fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return accepted, nil
}

func (s *proposalService) Reject(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error) {
	proposal, _, err := s.pendingForOwner(ctx, actorID, proposalID)
	if err != nil {
		return nil, err
	}
	return s.proposals.UpdateStatus(ctx, proposal.ID, domain.ProposalStatusRejected)
}

func (s *proposalService) Withdraw(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error) {
	proposal, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.FreelancerID != actorID {
		return nil, fmt.Errorf("%w: proposal %s belongs to another freelancer", ErrForbidden, proposalID)
	}
	if proposal.Status != domain.ProposalStatusPending {
		return nil, invalidf("proposal is already %s", proposal.Status)
	}
	return s.proposals.UpdateStatus(ctx, proposal.ID, domain.ProposalStatusWithdrawn)
}

func (s *proposalService) pendingForOwner(ctx context.Context, actorID, proposalID string) (*domain.Proposal, *domain.Job, error) {
	proposal, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	job, err := s.jobs.Get(ctx, proposal.JobID)
	if err != nil {
		return nil, nil, err
	}
	if job.ClientID != actorID {
		return nil, nil, fmt.Errorf("%w: only the job owner can decide on proposals", ErrForbidden)
	}
	if proposal.Status != domain.ProposalStatusPending {
		return nil, nil, invalidf("proposal is already %s", proposal.Status)
	}
	return proposal, job, nil
}
