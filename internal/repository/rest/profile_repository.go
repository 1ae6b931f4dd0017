package rest

import (
	"context"
	"time"

	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

const profilesTable = "profiles"

type ProfileRepository struct {
	client *baas.Client
}

func NewProfileRepository(client *baas.Client) repository.ProfileRepository {
	return &ProfileRepository{client: client}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return getByID[domain.Profile](ctx, r.client, profilesTable, id)
}

func (r *ProfileRepository) Insert(ctx context.Context, profile *domain.Profile) error {
	return insertOne(ctx, r.client, profilesTable, profile)
}

func (r *ProfileRepository) InsertIfMissing(ctx context.Context, profile *domain.Profile) (bool, error) {
	resp, err := r.client.From(profilesTable).ExecuteInsertMissing(ctx, profile, "id")
	if err != nil {
		return false, translate(err, "insert profile")
	}
	rows, err := decodeList[domain.Profile](resp)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	*profile = rows[0]
	return true, nil
}

func (r *ProfileRepository) Update(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	payload := struct {
		domain.ProfilePatch
		UpdatedAt time.Time `json:"updated_at"`
	}{patch, time.Now().UTC()}
	return updateByID[domain.Profile](ctx, r.client, profilesTable, id, payload)
}

func (r *ProfileRepository) ListByRole(ctx context.Context, role domain.Role, limit, offset int) ([]domain.Profile, error) {
	q := r.client.From(profilesTable).
		Select("*").
		Eq("role", role).
		Order("created_at", false).
		Limit(limitOrDefault(limit))
	if offset > 0 {
		q = q.Offset(offset)
	}
	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, translate(err, "list profiles")
	}
	return decodeList[domain.Profile](resp)
}
