package http

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"gigmarket/internal/domain"
	"gigmarket/internal/live"
	"gigmarket/internal/service"
	"gigmarket/internal/storage"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) SignUp(ctx context.Context, in service.SignUpInput) (*domain.AuthSession, *domain.Identity, error) {
	args := m.Called(ctx, in)
	session, _ := args.Get(0).(*domain.AuthSession)
	identity, _ := args.Get(1).(*domain.Identity)
	return session, identity, args.Error(2)
}

func (m *mockAccounts) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*domain.AuthSession)
	return session, args.Error(1)
}

func (m *mockAccounts) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *mockAccounts) Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	args := m.Called(ctx, refreshToken)
	session, _ := args.Get(0).(*domain.AuthSession)
	return session, args.Error(1)
}

func (m *mockAccounts) Identity(ctx context.Context, accessToken string) (*domain.Identity, error) {
	args := m.Called(ctx, accessToken)
	identity, _ := args.Get(0).(*domain.Identity)
	return identity, args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) Get(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) Update(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	args := m.Called(ctx, id, patch)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) ListFreelancers(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	args := m.Called(ctx, limit, offset)
	list, _ := args.Get(0).([]domain.Profile)
	return list, args.Error(1)
}

func (m *mockProfiles) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (*domain.Profile, error) {
	args := m.Called(ctx, userID, filename, contentType, body)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

type mockJobs struct{ mock.Mock }

func (m *mockJobs) Create(ctx context.Context, clientID string, in service.JobInput) (*domain.Job, error) {
	args := m.Called(ctx, clientID, in)
	job, _ := args.Get(0).(*domain.Job)
	return job, args.Error(1)
}

func (m *mockJobs) Get(ctx context.Context, id string) (*domain.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*domain.Job)
	return job, args.Error(1)
}

func (m *mockJobs) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	args := m.Called(ctx, filter)
	jobs, _ := args.Get(0).([]domain.Job)
	return jobs, args.Error(1)
}

func (m *mockJobs) Update(ctx context.Context, actorID, id string, patch domain.JobPatch) (*domain.Job, error) {
	args := m.Called(ctx, actorID, id, patch)
	job, _ := args.Get(0).(*domain.Job)
	return job, args.Error(1)
}

func (m *mockJobs) SetStatus(ctx context.Context, actorID, id string, status domain.JobStatus) (*domain.Job, error) {
	args := m.Called(ctx, actorID, id, status)
	job, _ := args.Get(0).(*domain.Job)
	return job, args.Error(1)
}

func (m *mockJobs) Delete(ctx context.Context, actorID, id string) error {
	return m.Called(ctx, actorID, id).Error(0)
}

type mockProposals struct{ mock.Mock }

func (m *mockProposals) Submit(ctx context.Context, freelancerID string, in service.ProposalInput) (*domain.Proposal, error) {
	args := m.Called(ctx, freelancerID, in)
	p, _ := args.Get(0).(*domain.Proposal)
	return p, args.Error(1)
}

func (m *mockProposals) ListForJob(ctx context.Context, jobID string) ([]domain.Proposal, error) {
	args := m.Called(ctx, jobID)
	list, _ := args.Get(0).([]domain.Proposal)
	return list, args.Error(1)
}

func (m *mockProposals) ListMine(ctx context.Context, freelancerID string) ([]domain.Proposal, error) {
	args := m.Called(ctx, freelancerID)
	list, _ := args.Get(0).([]domain.Proposal)
	return list, args.Error(1)
}

func (m *mockProposals) Accept(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error) {
	args := m.Called(ctx, actorID, proposalID)
	p, _ := args.Get(0).(*domain.Proposal)
	return p, args.Error(1)
}

func (m *mockProposals) Reject(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error) {
	args := m.Called(ctx, actorID, proposalID)
	p, _ := args.Get(0).(*domain.Proposal)
	return p, args.Error(1)
}

func (m *mockProposals) Withdraw(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error) {
	args := m.Called(ctx, actorID, proposalID)
	p, _ := args.Get(0).(*domain.Proposal)
	return p, args.Error(1)
}

type mockMessages struct{ mock.Mock }

func (m *mockMessages) Send(ctx context.Context, senderID string, in service.MessageInput) (*domain.Message, error) {
	args := m.Called(ctx, senderID, in)
	msg, _ := args.Get(0).(*domain.Message)
	return msg, args.Error(1)
}

func (m *mockMessages) Conversation(ctx context.Context, userID, otherID string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, userID, otherID, limit)
	list, _ := args.Get(0).([]domain.Message)
	return list, args.Error(1)
}

func (m *mockMessages) Inbox(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, userID, limit)
	list, _ := args.Get(0).([]domain.Message)
	return list, args.Error(1)
}

func (m *mockMessages) MarkRead(ctx context.Context, userID, messageID string) error {
	return m.Called(ctx, userID, messageID).Error(0)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) CreateMilestone(ctx context.Context, actorID string, in service.MilestoneInput) (*domain.Milestone, error) {
	args := m.Called(ctx, actorID, in)
	ms, _ := args.Get(0).(*domain.Milestone)
	return ms, args.Error(1)
}

func (m *mockPayments) ListMilestones(ctx context.Context, jobID string) ([]domain.Milestone, error) {
	args := m.Called(ctx, jobID)
	list, _ := args.Get(0).([]domain.Milestone)
	return list, args.Error(1)
}

func (m *mockPayments) UpdateMilestoneStatus(ctx context.Context, id string, status domain.MilestoneStatus) (*domain.Milestone, error) {
	args := m.Called(ctx, id, status)
	ms, _ := args.Get(0).(*domain.Milestone)
	return ms, args.Error(1)
}

func (m *mockPayments) RecordPayment(ctx context.Context, payerID string, in service.PaymentInput) (*domain.Payment, error) {
	args := m.Called(ctx, payerID, in)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

func (m *mockPayments) ListPayments(ctx context.Context, userID string) ([]domain.Payment, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]domain.Payment)
	return list, args.Error(1)
}

func (m *mockPayments) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	args := m.Called(ctx, id, status)
	p, _ := args.Get(0).(*domain.Payment)
	return p, args.Error(1)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

type memStorage struct {
	objects []storage.ObjectInfo
	deleted []string
}

func (s *memStorage) PutObject(_ context.Context, bucket, key string, _ io.Reader, _ string) (string, error) {
	return "s3://" + bucket + "/" + key, nil
}

func (s *memStorage) ListObjects(_ context.Context, _, _ string) ([]storage.ObjectInfo, error) {
	return s.objects, nil
}

func (s *memStorage) DeletePrefix(_ context.Context, _, prefix string) error {
	s.deleted = append(s.deleted, prefix)
	return nil
}

func (s *memStorage) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + bucket + "/" + key, nil
}

// chanFeed hands the registered handler to the test once a subscriber shows up.
type chanFeed struct {
	mu           sync.Mutex
	filters      []domain.ChangeFilter
	handlers     chan func(domain.Change)
	unsubscribed chan struct{}
}

func newChanFeed() *chanFeed {
	return &chanFeed{
		handlers:     make(chan func(domain.Change), 1),
		unsubscribed: make(chan struct{}, 1),
	}
}

func (f *chanFeed) Subscribe(_ context.Context, filter domain.ChangeFilter, handler func(domain.Change)) (live.Subscription, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	f.handlers <- handler
	return chanSub{f}, nil
}

type chanSub struct{ f *chanFeed }

func (s chanSub) Unsubscribe() error {
	select {
	case s.f.unsubscribed <- struct{}{}:
	default:
	}
	return nil
}
