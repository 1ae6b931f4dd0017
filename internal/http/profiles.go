package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/domain"
	"gigmarket/internal/storage"
)

const uploadURLExpiry = 15 * time.Minute

type uploadResponse struct {
	Key          string     `json:"key"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	URL          string     `json:"url,omitempty"`
}

func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) listFreelancers(c *gin.Context) {
	limit, offset := pagination(c)
	profiles, err := h.profiles.ListFreelancers(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var patch domain.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), userID(c), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage is not configured"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	body, err := file.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer body.Close()

	profile, err := h.profiles.UploadAvatar(c.Request.Context(), userID(c), file.Filename, file.Header.Get("Content-Type"), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// listUploads lists the caller's stored objects with short-lived download links.
func (h *Handler) listUploads(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage is not configured"})
		return
	}
	ctx := c.Request.Context()
	objects, err := h.storage.ListObjects(ctx, h.bucket, h.uploadPrefix(userID(c)))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]uploadResponse, 0, len(objects))
	for _, obj := range objects {
		item := objectToResponse(obj)
		if url, err := h.storage.GetObjectURL(ctx, h.bucket, obj.Key, uploadURLExpiry); err == nil {
			item.URL = url
		} else {
			h.logger.WithError(err).WithField("key", obj.Key).Warn("presign upload")
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteUploads(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage is not configured"})
		return
	}
	if err := h.storage.DeletePrefix(c.Request.Context(), h.bucket, h.uploadPrefix(userID(c))); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadPrefix(uid string) string {
	return storage.JoinKey(h.keyPrefix, "avatars", uid) + "/"
}

func objectToResponse(obj storage.ObjectInfo) uploadResponse {
	return uploadResponse{
		Key:          obj.Key,
		Size:         obj.Size,
		LastModified: obj.LastModified,
	}
}
