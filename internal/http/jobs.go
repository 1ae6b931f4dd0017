package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/domain"
	"gigmarket/internal/service"
)

func (h *Handler) listJobs(c *gin.Context) {
	limit, offset := pagination(c)
	filter := domain.JobFilter{
		ClientID: c.Query("client_id"),
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	}
	if statuses := domain.ParseJobStatuses(c.Query("status")); len(statuses) == 1 {
		filter.Status = statuses[0]
	} else {
		filter.Statuses = statuses
	}
	if c.Query("mine") == "true" {
		filter.ClientID = userID(c)
	}
	var err error
	if filter.MinBudget, err = budgetParam(c, "min_budget"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.MaxBudget, err = budgetParam(c, "max_budget"); err != nil {
		badRequest(c, err)
		return
	}

	jobs, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) createJob(c *gin.Context) {
	var in service.JobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.jobs.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *Handler) getJob(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) updateJob(c *gin.Context) {
	var patch domain.JobPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.jobs.Update(c.Request.Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) setJobStatus(c *gin.Context) {
	status, ok := bindStatus(c)
	if !ok {
		return
	}
	job, err := h.jobs.SetStatus(c.Request.Context(), userID(c), c.Param("id"), domain.JobStatus(status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) deleteJob(c *gin.Context) {
	if err := h.jobs.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func budgetParam(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not a number", name)
	}
	return v, nil
}
