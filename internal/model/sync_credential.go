package model

import (
	"time"
)

// Supported mailbox providers
const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
)

// SyncCredential holds the OAuth credential for one (user, provider) mailbox.
// It is created on the first successful handshake, updated in place on every
// refresh and sync pass, and only removed by an explicit disconnect.
type SyncCredential struct {
	ID           string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID       string     `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_sync_credentials_user_provider,priority:1"`
	Provider     string     `json:"provider" gorm:"type:varchar(20);not null;uniqueIndex:idx_sync_credentials_user_provider,priority:2"`
	AccessToken  string     `json:"-" gorm:"type:text"`
	RefreshToken string     `json:"-" gorm:"type:text"`
	TokenExpiry  time.Time  `json:"token_expiry"`
	EmailAddress string     `json:"email_address" gorm:"type:varchar(255)"`
	LastSyncAt   *time.Time `json:"last_sync_at"`
	SyncEnabled  bool       `json:"sync_enabled" gorm:"not null;default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for SyncCredential
func (SyncCredential) TableName() string {
	return "sync_credentials"
}

// Expired reports whether the access token expired before now
func (c *SyncCredential) Expired(now time.Time) bool {
	return c.TokenExpiry.Before(now)
}
