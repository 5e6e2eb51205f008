package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"zlatko/internal/service"
)

// SyncProspect runs one sync pass for the prospect in the body
func (h *Handlers) SyncProspect(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := h.sync.SyncProspect(c.Request.Context(), service.SyncRequest{
		UserID:        currentUser(c),
		Provider:      req.Provider,
		ProspectID:    req.ProspectID,
		ProspectEmail: req.ProspectEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Reconcile repairs the caller's cached last contact dates
func (h *Handlers) Reconcile(c *gin.Context) {
	result, err := h.reconciler.Run(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReconcileResponse{
		Message: fmt.Sprintf("Reconciled %d prospects, updated %d", result.Total, result.Updated),
		Updated: result.Updated,
		Skipped: result.Skipped,
		Failed:  result.Failed,
		Total:   result.Total,
		Details: result.Details,
	})
}
