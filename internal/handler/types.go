package handler

import (
	"time"

	"zlatko/internal/model"
)

// SyncRequest is the body of the sync trigger
type SyncRequest struct {
	ProspectID    string `json:"prospectId"`
	ProspectEmail string `json:"prospectEmail"`
	Provider      string `json:"provider"`
}

// ReconcileResponse is the reconciliation trigger output
type ReconcileResponse struct {
	Message string   `json:"message"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Total   int      `json:"total"`
	Details []string `json:"details"`
}

// DraftRequest carries free-form guidance for the generator
type DraftRequest struct {
	Instructions string `json:"instructions"`
}

// SyncToggleRequest enables or disables scheduled sync for a credential
type SyncToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// CredentialResponse is the token-free view of a stored credential
type CredentialResponse struct {
	Provider     string     `json:"provider"`
	EmailAddress string     `json:"email_address"`
	TokenExpiry  time.Time  `json:"token_expiry"`
	LastSyncAt   *time.Time `json:"last_sync_at"`
	SyncEnabled  bool       `json:"sync_enabled"`
	Connected    bool       `json:"connected"`
}

func newCredentialResponse(cred *model.SyncCredential) CredentialResponse {
	return CredentialResponse{
		Provider:     cred.Provider,
		EmailAddress: cred.EmailAddress,
		TokenExpiry:  cred.TokenExpiry,
		LastSyncAt:   cred.LastSyncAt,
		SyncEnabled:  cred.SyncEnabled,
		Connected:    true,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}
