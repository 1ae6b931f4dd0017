package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain"
)

func validJobInput() JobInput {
	return JobInput{
		Title:       "Design a logo",
		Description: strings.Repeat("a clean mark ", 3),
		BudgetMin:   100,
		BudgetMax:   300,
	}
}

func TestCreateJobOnlyForClients(t *testing.T) {
	profiles := newMemProfiles(
		domain.Profile{ID: "client-1", Role: domain.RoleClient},
		domain.Profile{ID: "free-1", Role: domain.RoleFreelancer},
	)
	svc := NewJobService(newMemJobs(), profiles)

	job, err := svc.Create(context.Background(), "client-1", validJobInput())
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusOpen, job.Status)
	assert.Equal(t, domain.BudgetFixed, job.BudgetType)
	assert.NotEmpty(t, job.ID)

	_, err = svc.Create(context.Background(), "free-1", validJobInput())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(context.Background(), "ghost", validJobInput())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateJobValidation(t *testing.T) {
	svc := NewJobService(newMemJobs(), newMemProfiles(domain.Profile{ID: "c", Role: domain.RoleClient}))

	tests := []struct {
		name   string
		mutate func(*JobInput)
	}{
		{"short title", func(in *JobInput) { in.Title = "Logo" }},
		{"long title", func(in *JobInput) { in.Title = strings.Repeat("x", 201) }},
		{"short description", func(in *JobInput) { in.Description = "too short" }},
		{"zero budget", func(in *JobInput) { in.BudgetMin = 0 }},
		{"inverted budget", func(in *JobInput) { in.BudgetMin, in.BudgetMax = 500, 100 }},
		{"NaN budget", func(in *JobInput) { in.BudgetMin, in.BudgetMax = math.NaN(), math.NaN() }},
		{"infinite budget", func(in *JobInput) { in.BudgetMax = math.Inf(1) }},
		{"unknown budget type", func(in *JobInput) { in.BudgetType = "barter" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validJobInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), "c", in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestJobOwnerOnlyMutations(t *testing.T) {
	jobs := newMemJobs(domain.Job{ID: "j-1", ClientID: "owner", Title: "Build a site", BudgetMin: 10, BudgetMax: 20, Status: domain.JobStatusOpen})
	svc := NewJobService(jobs, newMemProfiles())

	title := "Build a better site"
	_, err := svc.Update(context.Background(), "intruder", "j-1", domain.JobPatch{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), "owner", "j-1", domain.JobPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	lower := 50.0
	_, err = svc.Update(context.Background(), "owner", "j-1", domain.JobPatch{BudgetMin: &lower})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SetStatus(context.Background(), "owner", "j-1", "paused")
	assert.ErrorIs(t, err, ErrInvalidInput)

	done, err := svc.SetStatus(context.Background(), "owner", "j-1", domain.JobStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, done.Status)

	assert.ErrorIs(t, svc.Delete(context.Background(), "intruder", "j-1"), ErrForbidden)
	assert.NoError(t, svc.Delete(context.Background(), "owner", "j-1"))
}

func TestListJobsRejectsUnknownStatus(t *testing.T) {
	svc := NewJobService(newMemJobs(), newMemProfiles())
	_, err := svc.List(context.Background(), domain.JobFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListJobsValidatesStatusSetAndBudgetRange(t *testing.T) {
	svc := NewJobService(newMemJobs(), newMemProfiles())
	tests := []struct {
		name   string
		filter domain.JobFilter
	}{
		{"unknown status in set", domain.JobFilter{Statuses: []domain.JobStatus{domain.JobStatusOpen, "archived"}}},
		{"negative minimum", domain.JobFilter{MinBudget: -5}},
		{"NaN maximum", domain.JobFilter{MaxBudget: math.NaN()}},
		{"inverted range", domain.JobFilter{MinBudget: 500, MaxBudget: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.filter)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.List(context.Background(), domain.JobFilter{
		Statuses:  []domain.JobStatus{domain.JobStatusOpen, domain.JobStatusInProgress},
		MinBudget: 100,
		MaxBudget: 500,
	})
	assert.NoError(t, err)
}

func TestCheckPositiveRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, checkPositive("amount", v), ErrInvalidInput, "value %v", v)
	}
	assert.NoError(t, checkPositive("amount", 0.01))
}
