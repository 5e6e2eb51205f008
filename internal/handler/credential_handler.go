package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zlatko/internal/service"
)

// GetCredential reports whether the mailbox is connected, without tokens
func (h *Handlers) GetCredential(c *gin.Context) {
	cred, err := h.credentials.Status(c.Request.Context(), currentUser(c), c.Param("provider"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCredentialResponse(cred))
}

// GetAuthURL returns the consent URL that starts the OAuth handshake
func (h *Handlers) GetAuthURL(c *gin.Context) {
	if h.authURL == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error:   "not_configured",
			Message: "OAuth client is not configured",
			Code:    http.StatusNotImplemented,
		})
		return
	}
	state := c.DefaultQuery("state", currentUser(c))
	c.JSON(http.StatusOK, gin.H{"url": h.authURL(state)})
}

// OAuthCallback is the consent redirect target. It echoes the authorization
// code so the operator can hand it to the connect endpoint or CLI.
func (h *Handlers) OAuthCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		badRequest(c, "Authorization denied: "+errParam)
		return
	}
	code := c.Query("code")
	if code == "" {
		badRequest(c, "code is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    code,
		"state":   c.Query("state"),
		"message": "POST this code to /api/v1/credentials/:provider or pass it to zlatko connect --code",
	})
}

// ConnectCredential stores the result of an OAuth handshake
func (h *Handlers) ConnectCredential(c *gin.Context) {
	var req service.ConnectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	cred, err := h.credentials.Connect(c.Request.Context(), currentUser(c), c.Param("provider"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCredentialResponse(cred))
}

func (h *Handlers) SetCredentialSync(c *gin.Context) {
	var req SyncToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "enabled is required")
		return
	}

	if err := h.credentials.SetSyncEnabled(c.Request.Context(), currentUser(c), c.Param("provider"), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": c.Param("provider"), "sync_enabled": *req.Enabled})
}

func (h *Handlers) DisconnectCredential(c *gin.Context) {
	if err := h.credentials.Disconnect(c.Request.Context(), currentUser(c), c.Param("provider")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mailbox disconnected"})
}
