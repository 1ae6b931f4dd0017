package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/domain"
	"gigmarket/internal/service"
)

func (h *Handler) listMilestones(c *gin.Context) {
	milestones, err := h.payments.ListMilestones(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, milestones)
}

func (h *Handler) createMilestone(c *gin.Context) {
	var in service.MilestoneInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	in.JobID = c.Param("id")

	milestone, err := h.payments.CreateMilestone(c.Request.Context(), userID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, milestone)
}

func (h *Handler) setMilestoneStatus(c *gin.Context) {
	status, ok := bindStatus(c)
	if !ok {
		return
	}
	milestone, err := h.payments.UpdateMilestoneStatus(c.Request.Context(), c.Param("id"), domain.MilestoneStatus(status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, milestone)
}

func (h *Handler) listPayments(c *gin.Context) {
	payments, err := h.payments.ListPayments(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) recordPayment(c *gin.Context) {
	var in service.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	payment, err := h.payments.RecordPayment(c.Request.Context(), userID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) setPaymentStatus(c *gin.Context) {
	status, ok := bindStatus(c)
	if !ok {
		return
	}
	payment, err := h.payments.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), domain.PaymentStatus(status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
