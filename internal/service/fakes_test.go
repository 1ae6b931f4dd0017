package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"gigmarket/internal/authctx"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.AuthSession, *domain.Identity, error) {
	args := m.Called(ctx, email, password, metadata)
	session, _ := args.Get(0).(*domain.AuthSession)
	identity, _ := args.Get(1).(*domain.Identity)
	return session, identity, args.Error(2)
}

func (m *mockAuth) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*domain.AuthSession)
	return session, args.Error(1)
}

func (m *mockAuth) RefreshSession(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	args := m.Called(ctx, refreshToken)
	session, _ := args.Get(0).(*domain.AuthSession)
	return session, args.Error(1)
}

func (m *mockAuth) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *mockAuth) GetUser(ctx context.Context, accessToken string) (*domain.Identity, error) {
	args := m.Called(ctx, accessToken)
	identity, _ := args.Get(0).(*domain.Identity)
	return identity, args.Error(1)
}

type memProfiles struct {
	mu        sync.Mutex
	rows      map[string]domain.Profile
	failWrite error
	tokens    []string
}

func newMemProfiles(rows ...domain.Profile) *memProfiles {
	m := &memProfiles{rows: map[string]domain.Profile{}}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memProfiles) Get(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("get profiles: %w", repository.ErrNotFound)
	}
	return &p, nil
}

func (m *memProfiles) Insert(ctx context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, authctx.AccessToken(ctx))
	if m.failWrite != nil {
		return m.failWrite
	}
	if _, ok := m.rows[profile.ID]; ok {
		return errors.New("duplicate key")
	}
	m.rows[profile.ID] = *profile
	return nil
}

func (m *memProfiles) InsertIfMissing(ctx context.Context, profile *domain.Profile) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, authctx.AccessToken(ctx))
	if m.failWrite != nil {
		return false, m.failWrite
	}
	if _, ok := m.rows[profile.ID]; ok {
		return false, nil
	}
	m.rows[profile.ID] = *profile
	return true, nil
}

func (m *memProfiles) Update(_ context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = *patch.AvatarURL
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.HourlyRate != nil {
		p.HourlyRate = *patch.HourlyRate
	}
	m.rows[id] = p
	return &p, nil
}

func (m *memProfiles) ListByRole(_ context.Context, role domain.Role, limit, offset int) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Profile
	for _, p := range m.rows {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

type memJobs struct {
	mu         sync.Mutex
	rows       map[string]domain.Job
	failUpdate error
}

func newMemJobs(rows ...domain.Job) *memJobs {
	m := &memJobs{rows: map[string]domain.Job{}}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memJobs) Create(_ context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.ID = uuid.NewString()
	m.rows[job.ID] = *job
	return nil
}

func (m *memJobs) Get(_ context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &j, nil
}

func (m *memJobs) List(_ context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Job
	for _, j := range m.rows {
		if filter.Status == "" || j.Status == filter.Status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memJobs) Update(_ context.Context, id string, patch domain.JobPatch) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return nil, m.failUpdate
	}
	j, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Title != nil {
		j.Title = *patch.Title
	}
	if patch.Status != nil {
		j.Status = *patch.Status
	}
	if patch.BudgetMin != nil {
		j.BudgetMin = *patch.BudgetMin
	}
	if patch.BudgetMax != nil {
		j.BudgetMax = *patch.BudgetMax
	}
	m.rows[id] = j
	return &j, nil
}

func (m *memJobs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memProposals struct {
	mu   sync.Mutex
	rows map[string]domain.Proposal
}

func newMemProposals(rows ...domain.Proposal) *memProposals {
	m := &memProposals{rows: map[string]domain.Proposal{}}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memProposals) Create(_ context.Context, p *domain.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	m.rows[p.ID] = *p
	return nil
}

func (m *memProposals) Get(_ context.Context, id string) (*domain.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memProposals) ListByJob(_ context.Context, jobID string) ([]domain.Proposal, error) {
	return m.filter(func(p domain.Proposal) bool { return p.JobID == jobID }), nil
}

func (m *memProposals) ListByFreelancer(_ context.Context, freelancerID string) ([]domain.Proposal, error) {
	return m.filter(func(p domain.Proposal) bool { return p.FreelancerID == freelancerID }), nil
}

func (m *memProposals) UpdateStatus(_ context.Context, id string, status domain.ProposalStatus) (*domain.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Status = status
	m.rows[id] = p
	return &p, nil
}

func (m *memProposals) filter(keep func(domain.Proposal) bool) []domain.Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Proposal
	for _, p := range m.rows {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

type memMessages struct {
	mu     sync.Mutex
	rows   map[string]domain.Message
	marked []string
}

func newMemMessages(rows ...domain.Message) *memMessages {
	m := &memMessages{rows: map[string]domain.Message{}}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memMessages) Create(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.NewString()
	m.rows[msg.ID] = *msg
	return nil
}

func (m *memMessages) Get(_ context.Context, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &msg, nil
}

func (m *memMessages) Conversation(_ context.Context, a, b string, _ int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.rows {
		if (msg.SenderID == a && msg.RecipientID == b) || (msg.SenderID == b && msg.RecipientID == a) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) Inbox(_ context.Context, userID string, _ int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.rows {
		if msg.SenderID == userID || msg.RecipientID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, id)
	return nil
}
