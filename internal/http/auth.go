package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"gigmarket/internal/authctx"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
	"gigmarket/internal/service"
)

const (
	userIDKey   = "user_id"
	identityKey = "identity"
	tokenKey    = "access_token"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type sessionResponse struct {
	Session *domain.AuthSession `json:"session,omitempty"`
	User    *domain.Identity    `json:"user,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// requireAuth resolves the bearer token to an identity and makes every downstream call
// run as that user.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		identity, err := h.verifyToken(c, token)
		if err != nil {
			h.logger.WithError(err).Debug("rejected access token")
			status := http.StatusUnauthorized
			if !errors.Is(err, service.ErrInvalidCredentials) {
				status = statusFor(err)
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userIDKey, identity.ID)
		c.Set(identityKey, *identity)
		c.Set(tokenKey, token)
		ctx := authctx.WithAccessToken(c.Request.Context(), token)
		c.Request = c.Request.WithContext(authctx.WithUserID(ctx, identity.ID))
		c.Next()
	}
}

// verifyToken checks the signature locally when the JWT secret is configured and
// otherwise asks the auth provider.
func (h *Handler) verifyToken(c *gin.Context, token string) (*domain.Identity, error) {
	if len(h.jwtSecret) > 0 {
		if identity, err := h.verifyLocal(token); err == nil {
			return identity, nil
		}
	}
	return h.accounts.Identity(c.Request.Context(), token)
}

func (h *Handler) verifyLocal(token string) (*domain.Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("jwt invalid")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("jwt without subject")
	}
	identity := &domain.Identity{ID: sub}
	identity.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]any); ok {
		identity.Metadata = meta
	}
	return identity, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (h *Handler) rateLimit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter == nil {
			c.Next()
			return
		}
		ok, err := h.limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			h.logger.WithError(err).WithField("scope", scope).Warn("rate limiter unavailable")
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (h *Handler) signUp(c *gin.Context) {
	var req service.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, identity, err := h.accounts.SignUp(c.Request.Context(), req)
	if err != nil && !errors.Is(err, service.ErrProfileNotPersisted) {
		h.fail(c, err)
		return
	}

	resp := sessionResponse{Session: session, User: identity}
	if err != nil {
		h.logger.WithError(err).Warn("sign up left the profile unwritten")
		resp.Warning = err.Error()
	}
	if session == nil {
		c.JSON(http.StatusAccepted, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil && (session == nil || !errors.Is(err, service.ErrProfileNotPersisted)) {
		h.fail(c, err)
		return
	}

	resp := sessionResponse{Session: session, User: &session.Identity}
	if err != nil {
		resp.Warning = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: session, User: &session.Identity})
}

func (h *Handler) signOut(c *gin.Context) {
	if err := h.accounts.SignOut(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// me returns the caller's identity merged with the profile row, falling back to the
// identity metadata when the row is missing.
func (h *Handler) me(c *gin.Context) {
	identity := c.MustGet(identityKey).(domain.Identity)
	profile, err := h.profiles.Get(c.Request.Context(), identity.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.MergeUser(identity, profile))
}
