package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zlatko/internal/service"
)

// ListProspects returns the caller's prospects, optionally filtered by archived
func (h *Handlers) ListProspects(c *gin.Context) {
	var archived *bool
	if raw := c.Query("archived"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "archived must be true or false")
			return
		}
		archived = &v
	}

	prospects, err := h.prospects.List(c.Request.Context(), currentUser(c), archived)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prospects)
}

func (h *Handlers) GetProspect(c *gin.Context) {
	p, err := h.prospects.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) CreateProspect(c *gin.Context) {
	var req service.ProspectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	p, err := h.prospects.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handlers) UpdateProspect(c *gin.Context) {
	var req service.ProspectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	p, err := h.prospects.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) DeleteProspect(c *gin.Context) {
	if err := h.prospects.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Prospect deleted successfully"})
}

func (h *Handlers) ArchiveProspect(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *Handlers) UnarchiveProspect(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *Handlers) setArchived(c *gin.Context, archived bool) {
	if err := h.prospects.SetArchived(c.Request.Context(), currentUser(c), c.Param("id"), archived); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "archived": archived})
}

// DraftEmail asks the text generator for an outreach email
func (h *Handlers) DraftEmail(c *gin.Context) {
	var req DraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	draft, err := h.prospects.Draft(c.Request.Context(), currentUser(c), c.Param("id"), req.Instructions)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}
