package rest

import (
	"context"
	"strings"
	"time"

	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

const jobsTable = "jobs"

type JobRepository struct {
	client *baas.Client
}

func NewJobRepository(client *baas.Client) repository.JobRepository {
	return &JobRepository{client: client}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	return insertOne(ctx, r.client, jobsTable, job)
}

func (r *JobRepository) Get(ctx context.Context, id string) (*domain.Job, error) {
	return getByID[domain.Job](ctx, r.client, jobsTable, id)
}

func (r *JobRepository) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	q := r.client.From(jobsTable).Select("*")
	if filter.Status != "" {
		q = q.Eq("status", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]any, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s
		}
		q = q.In("status", statuses...)
	}
	if filter.MinBudget > 0 {
		q = q.Gte("budget_max", filter.MinBudget)
	}
	if filter.MaxBudget > 0 {
		q = q.Lte("budget_min", filter.MaxBudget)
	}
	if filter.ClientID != "" {
		q = q.Eq("client_id", filter.ClientID)
	}
	if filter.Category != "" {
		q = q.Eq("category", filter.Category)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		q = q.ILike("title", "*"+term+"*")
	}
	q = q.Order("created_at", false).Limit(limitOrDefault(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, translate(err, "list jobs")
	}
	return decodeList[domain.Job](resp)
}

func (r *JobRepository) Update(ctx context.Context, id string, patch domain.JobPatch) (*domain.Job, error) {
	payload := struct {
		domain.JobPatch
		UpdatedAt time.Time `json:"updated_at"`
	}{patch, time.Now().UTC()}
	return updateByID[domain.Job](ctx, r.client, jobsTable, id, payload)
}

func (r *JobRepository) Delete(ctx context.Context, id string) error {
	resp, err := r.client.From(jobsTable).Eq("id", id).ExecuteDelete(ctx)
	if err != nil {
		return translate(err, "delete job")
	}
	_, err = decodeFirst[domain.Job](resp, "delete job")
	return err
}
