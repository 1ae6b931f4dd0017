package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/service"
)

func (h *Handler) listJobProposals(c *gin.Context) {
	proposals, err := h.proposals.ListForJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

func (h *Handler) submitProposal(c *gin.Context) {
	var in service.ProposalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	in.JobID = c.Param("id")

	proposal, err := h.proposals.Submit(c.Request.Context(), userID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

func (h *Handler) listMyProposals(c *gin.Context) {
	proposals, err := h.proposals.ListMine(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// acceptProposal reports a partial failure as 207: the proposal was accepted but the
// job could not be moved to in_progress.
func (h *Handler) acceptProposal(c *gin.Context) {
	proposal, err := h.proposals.Accept(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if proposal != nil {
			h.logger.WithError(err).WithField("proposal_id", proposal.ID).Warn("proposal accepted without job update")
			c.JSON(http.StatusMultiStatus, gin.H{"proposal": proposal, "error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *Handler) rejectProposal(c *gin.Context) {
	proposal, err := h.proposals.Reject(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (h *Handler) withdrawProposal(c *gin.Context) {
	proposal, err := h.proposals.Withdraw(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}
