package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain"
)

func proposalFixture() (*memJobs, *memProposals, *memProfiles) {
	jobs := newMemJobs(
		domain.Job{ID: "open-job", ClientID: "client-1", Status: domain.JobStatusOpen},
		domain.Job{ID: "busy-job", ClientID: "client-1", Status: domain.JobStatusInProgress},
	)
	proposals := newMemProposals(
		domain.Proposal{ID: "p-1", JobID: "open-job", FreelancerID: "free-1", Status: domain.ProposalStatusPending},
		domain.Proposal{ID: "p-2", JobID: "open-job", FreelancerID: "free-2", Status: domain.ProposalStatusRejected},
	)
	profiles := newMemProfiles(
		domain.Profile{ID: "client-1", Role: domain.RoleClient},
		domain.Profile{ID: "free-1", Role: domain.RoleFreelancer},
	)
	return jobs, proposals, profiles
}

func TestSubmitProposal(t *testing.T) {
	jobs, proposals, profiles := proposalFixture()
	svc := NewProposalService(proposals, jobs, profiles, quietLogger())
	letter := strings.Repeat("I can do this well. ", 2)

	p, err := svc.Submit(context.Background(), "free-1", ProposalInput{JobID: "open-job", CoverLetter: letter, BidAmount: 250})
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusPending, p.Status)
	assert.Equal(t, "free-1", p.FreelancerID)

	_, err = svc.Submit(context.Background(), "free-1", ProposalInput{JobID: "busy-job", CoverLetter: letter, BidAmount: 250})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Submit(context.Background(), "free-1", ProposalInput{JobID: "open-job", CoverLetter: "short", BidAmount: 250})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Submit(context.Background(), "free-1", ProposalInput{JobID: "open-job", CoverLetter: letter, BidAmount: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Submit(context.Background(), "client-1", ProposalInput{JobID: "open-job", CoverLetter: letter, BidAmount: 10})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAcceptProposalMovesJobInProgress(t *testing.T) {
	jobs, proposals, profiles := proposalFixture()
	svc := NewProposalService(proposals, jobs, profiles, quietLogger())

	_, err := svc.Accept(context.Background(), "free-1", "p-1")
	assert.ErrorIs(t, err, ErrForbidden)

	accepted, err := svc.Accept(context.Background(), "client-1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusAccepted, accepted.Status)

	job, err := jobs.Get(context.Background(), "open-job")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusInProgress, job.Status)

	_, err = svc.Accept(context.Background(), "client-1", "p-2")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcceptProposalSecondWriteFailure(t *testing.T) {
	jobs, proposals, profiles := proposalFixture()
	jobs.failUpdate = errors.New("backend unavailable")
	svc := NewProposalService(proposals, jobs, profiles, quietLogger())

	accepted, err := svc.Accept(context.Background(), "client-1", "p-1")
	require.Error(t, err)
	require.NotNil(t, accepted)
	assert.Equal(t, domain.ProposalStatusAccepted, accepted.Status)

	stored, _ := proposals.Get(context.Background(), "p-1")
	assert.Equal(t, domain.ProposalStatusAccepted, stored.Status)
}

func TestWithdrawAndReject(t *testing.T) {
	jobs, proposals, profiles := proposalFixture()
	svc := NewProposalService(proposals, jobs, profiles, quietLogger())

	_, err := svc.Withdraw(context.Background(), "free-2", "p-1")
	assert.ErrorIs(t, err, ErrForbidden)

	withdrawn, err := svc.Withdraw(context.Background(), "free-1", "p-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusWithdrawn, withdrawn.Status)

	_, err = svc.Reject(context.Background(), "client-1", "p-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
