package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"

	"gigmarket/internal/authctx"
	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

const minPasswordLength = 6

// AuthProvider is the hosted auth API. *baas.AuthClient satisfies it.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.AuthSession, *domain.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error)
	RefreshSession(ctx context.Context, refreshToken string) (*domain.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*domain.Identity, error)
}

// SignUpInput carries the registration form.
type SignUpInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
}

// AccountService describes the account lifecycle against the auth provider.
type AccountService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.AuthSession, *domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error)
	Identity(ctx context.Context, accessToken string) (*domain.Identity, error)
}

type accountService struct {
	auth     AuthProvider
	profiles repository.ProfileRepository
	logger   *logrus.Logger
}

func NewAccountService(auth AuthProvider, profiles repository.ProfileRepository, logger *logrus.Logger) AccountService {
	if logger == nil {
		logger = logrus.New()
	}
	return &accountService{
		auth:     auth,
		profiles: profiles,
		logger:   logger,
	}
}

// SignUp registers the identity, then inserts the profile row. The two writes are
// independent: a failed insert still returns the session, with ErrProfileNotPersisted.
func (s *accountService) SignUp(ctx context.Context, in SignUpInput) (*domain.AuthSession, *domain.Identity, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateCredentials(in.Email, in.Password); err != nil {
		return nil, nil, err
	}
	if err := checkLength("full name", in.FullName, 1, 100); err != nil {
		return nil, nil, err
	}
	if in.Role != domain.RoleClient && in.Role != domain.RoleFreelancer {
		return nil, nil, invalidf("role must be %q or %q", domain.RoleClient, domain.RoleFreelancer)
	}

	session, identity, err := s.auth.SignUp(ctx, in.Email, in.Password, map[string]any{
		"full_name": in.FullName,
		"role":      string(in.Role),
	})
	if err != nil {
		s.logger.WithError(err).WithField("email", in.Email).Warn("sign up rejected")
		return nil, nil, err
	}
	if identity == nil && session != nil {
		identity = &session.Identity
	}
	if identity == nil {
		return nil, nil, errors.New("sign up returned no user")
	}

	writeCtx := ctx
	if session != nil {
		writeCtx = authctx.WithAccessToken(ctx, session.AccessToken)
	}
	profile := &domain.Profile{
		ID:       identity.ID,
		Email:    in.Email,
		FullName: in.FullName,
		Role:     in.Role,
	}
	if err := s.profiles.Insert(writeCtx, profile); err != nil {
		s.logger.WithError(err).WithField("user_id", identity.ID).Error("insert profile after sign up")
		return session, identity, fmt.Errorf("%w: %v", ErrProfileNotPersisted, err)
	}
	return session, identity, nil
}

// SignIn authenticates, then creates the profile row from the identity
// metadata when the user has none yet. Existing rows are never rewritten.
func (s *accountService) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	session, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		if baas.IsUnauthorized(err) || isBadRequest(err) {
			s.logger.WithField("email", email).Info("sign in rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	identity := session.Identity
	profile := &domain.Profile{
		ID:       identity.ID,
		Email:    identity.Email,
		FullName: identity.MetadataString("full_name"),
		Role:     domain.Role(identity.MetadataString("role")),
	}
	created, err := s.profiles.InsertIfMissing(authctx.WithAccessToken(ctx, session.AccessToken), profile)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.ID).Error("ensure profile after sign in")
		return session, fmt.Errorf("%w: %v", ErrProfileNotPersisted, err)
	}
	if created {
		s.logger.WithField("user_id", identity.ID).Info("created missing profile on sign in")
	}
	return session, nil
}

func (s *accountService) SignOut(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	return s.auth.SignOut(ctx, accessToken)
}

func (s *accountService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidCredentials
	}
	session, err := s.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		if baas.IsUnauthorized(err) || isBadRequest(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return session, nil
}

func (s *accountService) Identity(ctx context.Context, accessToken string) (*domain.Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrInvalidCredentials
	}
	identity, err := s.auth.GetUser(ctx, accessToken)
	if err != nil {
		if baas.IsUnauthorized(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return identity, nil
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return invalidf("email address is not valid")
	}
	if len(password) < minPasswordLength {
		return invalidf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func isBadRequest(err error) bool {
	var apiErr *baas.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}
