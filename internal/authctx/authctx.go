// Package authctx carries the caller's credentials through a request context so that
// every call into the hosted store is made as that caller.
package authctx

import (
	"context"
	"strings"
)

type contextKey string

const (
	accessTokenKey = contextKey("access_token")
	userIDKey      = contextKey("user_id")
)

// WithAccessToken returns a context carrying the caller's access token.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, strings.TrimSpace(token))
}

// AccessToken returns the access token stored in ctx, if any.
func AccessToken(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(accessTokenKey).(string)
	return token
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id stored in ctx, if any.
func UserID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
