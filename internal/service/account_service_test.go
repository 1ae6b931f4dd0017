package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
)

func TestSignUpInsertsProfileAsNewUser(t *testing.T) {
	auth := new(mockAuth)
	profiles := newMemProfiles()
	svc := NewAccountService(auth, profiles, quietLogger())

	identity := &domain.Identity{ID: "u-1", Email: "ada@example.com"}
	session := &domain.AuthSession{AccessToken: "tok-1", RefreshToken: "ref-1", Identity: *identity}
	auth.On("SignUp", mock.Anything, "ada@example.com", "secret123", map[string]any{
		"full_name": "Ada Lovelace",
		"role":      "freelancer",
	}).Return(session, identity, nil)

	gotSession, gotIdentity, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    " ada@example.com ",
		Password: "secret123",
		FullName: "Ada Lovelace",
		Role:     domain.RoleFreelancer,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", gotSession.AccessToken)
	assert.Equal(t, "u-1", gotIdentity.ID)

	stored, err := profiles.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFreelancer, stored.Role)
	assert.Equal(t, "Ada Lovelace", stored.FullName)
	assert.Equal(t, []string{"tok-1"}, profiles.tokens)
	auth.AssertExpectations(t)
}

func TestSignUpProfileFailureKeepsSession(t *testing.T) {
	auth := new(mockAuth)
	profiles := newMemProfiles()
	profiles.failWrite = errors.New("permission denied")
	svc := NewAccountService(auth, profiles, quietLogger())

	identity := &domain.Identity{ID: "u-2", Email: "bob@example.com"}
	session := &domain.AuthSession{AccessToken: "tok-2", Identity: *identity}
	auth.On("SignUp", mock.Anything, "bob@example.com", "secret123", mock.Anything).Return(session, identity, nil)

	gotSession, gotIdentity, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "bob@example.com",
		Password: "secret123",
		FullName: "Bob",
		Role:     domain.RoleClient,
	})
	require.ErrorIs(t, err, ErrProfileNotPersisted)
	require.NotNil(t, gotSession)
	assert.Equal(t, "tok-2", gotSession.AccessToken)
	assert.Equal(t, "u-2", gotIdentity.ID)
}

func TestSignUpValidation(t *testing.T) {
	svc := NewAccountService(new(mockAuth), newMemProfiles(), quietLogger())

	cases := []SignUpInput{
		{Email: "not-an-email", Password: "secret123", FullName: "A", Role: domain.RoleClient},
		{Email: "a@b.co", Password: "123", FullName: "A", Role: domain.RoleClient},
		{Email: "a@b.co", Password: "secret123", FullName: "", Role: domain.RoleClient},
		{Email: "a@b.co", Password: "secret123", FullName: "A", Role: domain.RoleAdmin},
	}
	for _, in := range cases {
		_, _, err := svc.SignUp(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
	}
}

func TestSignInRejectedCredentials(t *testing.T) {
	auth := new(mockAuth)
	svc := NewAccountService(auth, newMemProfiles(), quietLogger())
	auth.On("SignInWithPassword", mock.Anything, "a@b.co", "wrong").
		Return(nil, &baas.APIError{StatusCode: 400, Code: "invalid_grant", Message: "Invalid login credentials"})

	_, err := svc.SignIn(context.Background(), "a@b.co", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInKeepsEditedProfile(t *testing.T) {
	auth := new(mockAuth)
	profiles := newMemProfiles(domain.Profile{ID: "u-3", Email: "c@d.co", FullName: "Carol Edited", Role: domain.RoleClient, Bio: "hi"})
	svc := NewAccountService(auth, profiles, quietLogger())

	session := &domain.AuthSession{
		AccessToken: "tok-3",
		Identity: domain.Identity{
			ID:       "u-3",
			Email:    "c@d.co",
			Metadata: map[string]any{"role": "freelancer", "full_name": "Carol From Signup"},
		},
	}
	auth.On("SignInWithPassword", mock.Anything, "c@d.co", "secret123").Return(session, nil)

	got, err := svc.SignIn(context.Background(), "c@d.co", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-3", got.AccessToken)

	stored, err := profiles.Get(context.Background(), "u-3")
	require.NoError(t, err)
	assert.Equal(t, "Carol Edited", stored.FullName)
	assert.Equal(t, domain.RoleClient, stored.Role)
	assert.Equal(t, "hi", stored.Bio)
	assert.Equal(t, []string{"tok-3"}, profiles.tokens)
}

func TestSignInCreatesMissingProfileFromMetadata(t *testing.T) {
	auth := new(mockAuth)
	profiles := newMemProfiles()
	svc := NewAccountService(auth, profiles, quietLogger())

	session := &domain.AuthSession{
		AccessToken: "tok-4",
		Identity: domain.Identity{
			ID:       "u-4",
			Email:    "d@e.co",
			Metadata: map[string]any{"role": "freelancer", "full_name": "Dan"},
		},
	}
	auth.On("SignInWithPassword", mock.Anything, "d@e.co", "secret123").Return(session, nil)

	_, err := svc.SignIn(context.Background(), "d@e.co", "secret123")
	require.NoError(t, err)

	stored, err := profiles.Get(context.Background(), "u-4")
	require.NoError(t, err)
	assert.Equal(t, "Dan", stored.FullName)
	assert.Equal(t, domain.RoleFreelancer, stored.Role)
	assert.Equal(t, "d@e.co", stored.Email)
}

func TestRefreshAndIdentityMapUnauthorized(t *testing.T) {
	auth := new(mockAuth)
	svc := NewAccountService(auth, newMemProfiles(), quietLogger())
	auth.On("RefreshSession", mock.Anything, "stale").Return(nil, &baas.APIError{StatusCode: 400, Code: "invalid_grant"})
	auth.On("GetUser", mock.Anything, "expired").Return(nil, &baas.APIError{StatusCode: 401})

	_, err := svc.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Identity(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, svc.SignOut(context.Background(), ""))
}
