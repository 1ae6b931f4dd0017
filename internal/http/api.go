package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gigmarket/internal/live"
	"gigmarket/internal/service"
	"gigmarket/internal/storage"
)

// RateLimiter decides whether a client may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Deps carries the services exposed over HTTP.
type Deps struct {
	Accounts  service.AccountService
	Profiles  service.ProfileService
	Jobs      service.JobService
	Proposals service.ProposalService
	Messages  service.MessageService
	Payments  service.PaymentService

	Storage   storage.Service
	Bucket    string
	KeyPrefix string

	Feed      live.Feed
	Limiter   RateLimiter
	JWTSecret string
	Logger    *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts  service.AccountService
	profiles  service.ProfileService
	jobs      service.JobService
	proposals service.ProposalService
	messages  service.MessageService
	payments  service.PaymentService
	storage   storage.Service
	bucket    string
	keyPrefix string
	feed      live.Feed
	limiter   RateLimiter
	jwtSecret []byte
	logger    *logrus.Logger
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	h := &Handler{
		accounts:  deps.Accounts,
		profiles:  deps.Profiles,
		jobs:      deps.Jobs,
		proposals: deps.Proposals,
		messages:  deps.Messages,
		payments:  deps.Payments,
		storage:   deps.Storage,
		bucket:    deps.Bucket,
		keyPrefix: deps.KeyPrefix,
		feed:      deps.Feed,
		limiter:   deps.Limiter,
		logger:    logger,
	}
	if deps.JWTSecret != "" {
		h.jwtSecret = []byte(deps.JWTSecret)
	}
	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), h.requestLogger())

	api := router.Group("/api")
	api.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.rateLimit("signup"), h.signUp)
		auth.POST("/signin", h.rateLimit("signin"), h.signIn)
		auth.POST("/refresh", h.rateLimit("refresh"), h.refresh)
		auth.POST("/signout", h.requireAuth(), h.signOut)
		auth.GET("/me", h.requireAuth(), h.me)
	}

	authed := api.Group("", h.requireAuth())
	{
		authed.GET("/profiles/:id", h.getProfile)
		authed.GET("/freelancers", h.listFreelancers)
		authed.PATCH("/profiles/me", h.updateProfile)
		authed.POST("/profiles/me/avatar", h.uploadAvatar)
		authed.GET("/profiles/me/uploads", h.listUploads)
		authed.DELETE("/profiles/me/uploads", h.deleteUploads)

		authed.GET("/jobs", h.listJobs)
		authed.POST("/jobs", h.createJob)
		authed.GET("/jobs/:id", h.getJob)
		authed.PATCH("/jobs/:id", h.updateJob)
		authed.DELETE("/jobs/:id", h.deleteJob)
		authed.PATCH("/jobs/:id/status", h.setJobStatus)

		authed.GET("/jobs/:id/proposals", h.listJobProposals)
		authed.POST("/jobs/:id/proposals", h.submitProposal)
		authed.GET("/proposals/mine", h.listMyProposals)
		authed.POST("/proposals/:id/accept", h.acceptProposal)
		authed.POST("/proposals/:id/reject", h.rejectProposal)
		authed.POST("/proposals/:id/withdraw", h.withdrawProposal)

		authed.GET("/messages", h.inbox)
		authed.GET("/messages/with/:userId", h.conversation)
		authed.POST("/messages", h.sendMessage)
		authed.POST("/messages/:id/read", h.markRead)

		authed.GET("/jobs/:id/milestones", h.listMilestones)
		authed.POST("/jobs/:id/milestones", h.createMilestone)
		authed.PATCH("/milestones/:id/status", h.setMilestoneStatus)

		authed.GET("/payments", h.listPayments)
		authed.POST("/payments", h.recordPayment)
		authed.PATCH("/payments/:id/status", h.setPaymentStatus)

		authed.GET("/realtime/:table", h.streamChanges)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := h.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}

// pagination reads limit/offset query parameters; absent or malformed values are zero.
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
