package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

// JobInput carries the job posting form.
type JobInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Skills      []string          `json:"skills"`
	BudgetType  domain.BudgetType `json:"budget_type"`
	BudgetMin   float64           `json:"budget_min"`
	BudgetMax   float64           `json:"budget_max"`
	Deadline    *time.Time        `json:"deadline"`
}

// JobService coordinates job postings.
type JobService interface {
	Create(ctx context.Context, clientID string, in JobInput) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error)
	Update(ctx context.Context, actorID, id string, patch domain.JobPatch) (*domain.Job, error)
	SetStatus(ctx context.Context, actorID, id string, status domain.JobStatus) (*domain.Job, error)
	Delete(ctx context.Context, actorID, id string) error
}

type jobService struct {
	jobs     repository.JobRepository
	profiles repository.ProfileRepository
}

func NewJobService(jobs repository.JobRepository, profiles repository.ProfileRepository) JobService {
	return &jobService{
		jobs:     jobs,
		profiles: profiles,
	}
}

func (s *jobService) Create(ctx context.Context, clientID string, in JobInput) (*domain.Job, error) {
	if err := validateJobInput(in); err != nil {
		return nil, err
	}
	if err := requireRole(ctx, s.profiles, clientID, domain.RoleClient); err != nil {
		return nil, err
	}
	if in.BudgetType == "" {
		in.BudgetType = domain.BudgetFixed
	}

	job := &domain.Job{
		ClientID:    clientID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Skills:      in.Skills,
		BudgetType:  in.BudgetType,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		Status:      domain.JobStatusOpen,
		Deadline:    in.Deadline,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) Get(ctx context.Context, id string) (*domain.Job, error) {
	return s.jobs.Get(ctx, id)
}

func (s *jobService) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidf("unknown job status %q", filter.Status)
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, invalidf("unknown job status %q", status)
		}
	}
	if filter.MinBudget != 0 {
		if err := checkPositive("minimum budget filter", filter.MinBudget); err != nil {
			return nil, err
		}
	}
	if filter.MaxBudget != 0 {
		if err := checkPositive("maximum budget filter", filter.MaxBudget); err != nil {
			return nil, err
		}
	}
	if filter.MinBudget > 0 && filter.MaxBudget > 0 && filter.MinBudget > filter.MaxBudget {
		return nil, invalidf("minimum budget filter must not exceed maximum budget filter")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalidf("limit and offset must not be negative")
	}
	return s.jobs.List(ctx, filter)
}

func (s *jobService) Update(ctx context.Context, actorID, id string, patch domain.JobPatch) (*domain.Job, error) {
	job, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := validateJobPatch(*job, patch); err != nil {
		return nil, err
	}
	return s.jobs.Update(ctx, id, patch)
}

func (s *jobService) SetStatus(ctx context.Context, actorID, id string, status domain.JobStatus) (*domain.Job, error) {
	if !status.Valid() {
		return nil, invalidf("unknown job status %q", status)
	}
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return nil, err
	}
	return s.jobs.Update(ctx, id, domain.JobPatch{Status: &status})
}

func (s *jobService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}
	return s.jobs.Delete(ctx, id)
}

func (s *jobService) owned(ctx context.Context, actorID, id string) (*domain.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actorID {
		return nil, fmt.Errorf("%w: job %s belongs to another client", ErrForbidden, id)
	}
	return job, nil
}

func validateJobInput(in JobInput) error {
	if err := checkLength("title", in.Title, 5, 200); err != nil {
		return err
	}
	if err := checkLength("description", in.Description, 20, 10000); err != nil {
		return err
	}
	if in.BudgetType != "" && in.BudgetType != domain.BudgetFixed && in.BudgetType != domain.BudgetHourly {
		return invalidf("unknown budget type %q", in.BudgetType)
	}
	return checkBudget(in.BudgetMin, in.BudgetMax)
}

func validateJobPatch(current domain.Job, patch domain.JobPatch) error {
	if patch.Title != nil {
		if err := checkLength("title", *patch.Title, 5, 200); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if err := checkLength("description", *patch.Description, 20, 10000); err != nil {
			return err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return invalidf("unknown job status %q", *patch.Status)
	}
	if patch.BudgetMin != nil || patch.BudgetMax != nil {
		lo, hi := current.BudgetMin, current.BudgetMax
		if patch.BudgetMin != nil {
			lo = *patch.BudgetMin
		}
		if patch.BudgetMax != nil {
			hi = *patch.BudgetMax
		}
		return checkBudget(lo, hi)
	}
	return nil
}

func checkBudget(lo, hi float64) error {
	if err := checkPositive("minimum budget", lo); err != nil {
		return err
	}
	if err := checkPositive("maximum budget", hi); err != nil {
		return err
	}
	if lo > hi {
		return invalidf("minimum budget must not exceed maximum budget")
	}
	return nil
}

// requireRole checks the stored profile role. A missing profile counts as forbidden.
func requireRole(ctx context.Context, profiles repository.ProfileRepository, userID string, role domain.Role) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: not signed in", ErrForbidden)
	}
	profile, err := profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: no profile for user %s", ErrForbidden, userID)
		}
		return err
	}
	if profile.Role != role {
		return fmt.Errorf("%w: only %s accounts may do this", ErrForbidden, role)
	}
	return nil
}
