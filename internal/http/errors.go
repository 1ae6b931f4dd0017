package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gigmarket/internal/baas"
	"gigmarket/internal/repository"
	"gigmarket/internal/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	}

	var apiErr *baas.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsNotFound():
			return http.StatusNotFound
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return http.StatusForbidden
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail logs err and writes it as a JSON error body with the mapped status.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request error")
	} else {
		entry.Info("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

var errMissingStatus = errors.New("status is required")

type statusRequest struct {
	Status string `json:"status"`
}

func bindStatus(c *gin.Context) (string, bool) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return "", false
	}
	if req.Status == "" {
		badRequest(c, errMissingStatus)
		return "", false
	}
	return req.Status, true
}
