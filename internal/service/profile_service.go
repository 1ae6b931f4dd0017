package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
	"gigmarket/internal/storage"
)

const maxAvatarBytes = 5 << 20

// ProfileService manages the public profile attributes of users.
type ProfileService interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	Update(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error)
	ListFreelancers(ctx context.Context, limit, offset int) ([]domain.Profile, error)
	UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (*domain.Profile, error)
}

// AvatarOptions selects where avatars are stored.
type AvatarOptions struct {
	Bucket    string
	KeyPrefix string
}

type profileService struct {
	profiles repository.ProfileRepository
	objects  storage.Service
	avatars  AvatarOptions
}

func NewProfileService(profiles repository.ProfileRepository, objects storage.Service, avatars AvatarOptions) ProfileService {
	return &profileService{
		profiles: profiles,
		objects:  objects,
		avatars:  avatars,
	}
}

func (s *profileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidf("profile id is required")
	}
	return s.profiles.Get(ctx, id)
}

func (s *profileService) Update(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	if err := validateProfilePatch(patch); err != nil {
		return nil, err
	}
	return s.profiles.Update(ctx, id, patch)
}

func (s *profileService) ListFreelancers(ctx context.Context, limit, offset int) ([]domain.Profile, error) {
	if limit < 0 || offset < 0 {
		return nil, invalidf("limit and offset must not be negative")
	}
	return s.profiles.ListByRole(ctx, domain.RoleFreelancer, limit, offset)
}

// UploadAvatar stores the image under <prefix>/avatars/<user>/ and points the profile at it.
func (s *profileService) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader) (*domain.Profile, error) {
	if s.objects == nil || s.avatars.Bucket == "" {
		return nil, fmt.Errorf("object storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalidf("avatar must be an image")
	}

	key := storage.JoinKey(s.avatars.KeyPrefix, "avatars", userID, uuid.NewString()+strings.ToLower(path.Ext(filename)))
	location, err := s.objects.PutObject(ctx, s.avatars.Bucket, key, io.LimitReader(body, maxAvatarBytes), contentType)
	if err != nil {
		return nil, err
	}
	return s.profiles.Update(ctx, userID, domain.ProfilePatch{AvatarURL: &location})
}

func validateProfilePatch(patch domain.ProfilePatch) error {
	if patch.FullName != nil {
		if err := checkLength("full name", *patch.FullName, 1, 100); err != nil {
			return err
		}
	}
	if patch.Bio != nil {
		if err := checkLength("bio", *patch.Bio, 0, 2000); err != nil {
			return err
		}
	}
	if patch.HourlyRate != nil && *patch.HourlyRate < 0 {
		return invalidf("hourly rate must not be negative")
	}
	if patch.Location != nil {
		if err := checkLength("location", *patch.Location, 0, 100); err != nil {
			return err
		}
	}
	return nil
}
