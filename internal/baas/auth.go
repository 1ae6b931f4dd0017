package baas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gigmarket/internal/domain"
)

// Auth returns the auth API client.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c, now: time.Now}
}

// AuthClient handles authentication operations against the hosted auth provider.
type AuthClient struct {
	client *Client
	now    func() time.Time
}

type authUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

type authResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         *authUser `json:"user"`
}

// SignUp registers a new user. The returned session is nil when the provider requires
// email confirmation before the first sign-in.
func (a *AuthClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.AuthSession, *domain.Identity, error) {
	resp, err := a.post(ctx, "/auth/v1/signup", map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}, "")
	if err != nil {
		return nil, nil, err
	}

	var out authResponse
	if err := resp.JSON(&out); err != nil {
		return nil, nil, err
	}
	if out.AccessToken == "" {
		// confirmation pending: the body is the bare user
		var user authUser
		if err := resp.JSON(&user); err != nil {
			return nil, nil, err
		}
		identity := toIdentity(&user)
		return nil, &identity, nil
	}

	session := a.toSession(out)
	return session, &session.Identity, nil
}

// SignInWithPassword exchanges credentials for a session.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	resp, err := a.post(ctx, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}
	var out authResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("sign in: provider returned no access token")
	}
	return a.toSession(out), nil
}

// RefreshSession exchanges a refresh token for a new session.
func (a *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	resp, err := a.post(ctx, "/auth/v1/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, "")
	if err != nil {
		return nil, err
	}
	var out authResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("refresh: provider returned no access token")
	}
	return a.toSession(out), nil
}

// SignOut revokes the session behind accessToken.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := a.post(ctx, "/auth/v1/logout", nil, accessToken)
	return err
}

// GetUser resolves the identity behind accessToken.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.client.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	a.client.setHeaders(req, accessToken)

	resp, err := a.client.do(req)
	if err != nil {
		return nil, err
	}
	var user authUser
	if err := resp.JSON(&user); err != nil {
		return nil, err
	}
	identity := toIdentity(&user)
	return &identity, nil
}

func (a *AuthClient) post(ctx context.Context, path string, payload any, accessToken string) (*Response, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.client.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	a.client.setHeaders(req, accessToken)
	req.Header.Set("Content-Type", "application/json")
	return a.client.do(req)
}

func (a *AuthClient) toSession(out authResponse) *domain.AuthSession {
	session := &domain.AuthSession{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Identity:     toIdentity(out.User),
	}
	switch {
	case out.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(out.ExpiresAt, 0).UTC()
	case out.ExpiresIn > 0:
		session.ExpiresAt = a.now().Add(time.Duration(out.ExpiresIn) * time.Second).UTC()
	}
	return session
}

func toIdentity(user *authUser) domain.Identity {
	if user == nil {
		return domain.Identity{}
	}
	return domain.Identity{
		ID:        user.ID,
		Email:     user.Email,
		Metadata:  user.UserMetadata,
		CreatedAt: user.CreatedAt,
	}
}
