package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zlatko/internal/service"
)

// ListCommunications returns a prospect's communications, newest first
func (h *Handlers) ListCommunications(c *gin.Context) {
	comms, err := h.communications.List(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comms)
}

// CreateCommunication logs a manual call, meeting, note or email
func (h *Handlers) CreateCommunication(c *gin.Context) {
	var req service.CommunicationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	comm, err := h.communications.Create(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comm)
}

func (h *Handlers) DeleteCommunication(c *gin.Context) {
	if err := h.communications.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Communication deleted successfully"})
}
