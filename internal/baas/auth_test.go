package baas

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInWithPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])
		_, _ = w.Write([]byte(`{
			"access_token":"at","refresh_token":"rt","expires_in":3600,"expires_at":1893456000,
			"user":{"id":"u1","email":"ana@example.com","user_metadata":{"role":"client"}}
		}`))
	})

	session, err := client.Auth().SignInWithPassword(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "rt", session.RefreshToken)
	assert.Equal(t, time.Unix(1893456000, 0).UTC(), session.ExpiresAt)
	assert.Equal(t, "u1", session.Identity.ID)
	assert.Equal(t, "client", session.Identity.MetadataString("role"))
}

func TestSignInRejectedCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := client.Auth().SignInWithPassword(context.Background(), "ana@example.com", "nope")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Invalid login credentials")
}

func TestSignUpWithoutSessionWhenConfirmationPending(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		var body struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "freelancer", body.Data["role"])
		_, _ = w.Write([]byte(`{"id":"u2","email":"bo@example.com","user_metadata":{"role":"freelancer"}}`))
	})

	session, identity, err := client.Auth().SignUp(context.Background(), "bo@example.com", "secret123", map[string]any{"role": "freelancer"})
	require.NoError(t, err)
	assert.Nil(t, session)
	require.NotNil(t, identity)
	assert.Equal(t, "u2", identity.ID)
}

func TestRefreshUsesExpiresIn(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"at2","refresh_token":"rt2","expires_in":600,"user":{"id":"u1"}}`))
	})

	auth := client.Auth()
	auth.now = func() time.Time { return now }
	session, err := auth.RefreshSession(context.Background(), "rt")
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), session.ExpiresAt)
}

func TestSignOutAndGetUserSendBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/user":
			_, _ = w.Write([]byte(`{"id":"u1","email":"ana@example.com"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	identity, err := client.Auth().GetUser(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", identity.Email)
	require.NoError(t, client.Auth().SignOut(context.Background(), "at"))
}
