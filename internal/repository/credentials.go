package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zlatko/internal/model"
)

// GetCredential returns nil when the user has not connected the provider
func (r *Repository) GetCredential(ctx context.Context, userID, provider string) (*model.SyncCredential, error) {
	var cred model.SyncCredential
	result := r.conn(ctx).Where("user_id = ? AND provider = ?", userID, provider).First(&cred)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync credential: %w", result.Error)
	}
	return &cred, nil
}

// UpsertCredential stores the credential from an OAuth handshake, replacing
// the tokens of an existing (user, provider) row in place.
func (r *Repository) UpsertCredential(ctx context.Context, cred *model.SyncCredential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	result := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_expiry", "email_address", "sync_enabled", "updated_at"}),
	}).Create(cred)
	if result.Error != nil {
		return fmt.Errorf("failed to save sync credential: %w", result.Error)
	}
	return nil
}

// UpdateToken persists a refreshed access token. The refresh token is only
// replaced when the provider rotated it.
func (r *Repository) UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error {
	updates := map[string]interface{}{
		"access_token": accessToken,
		"token_expiry": expiry,
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	result := r.conn(ctx).Model(&model.SyncCredential{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update token: %w", result.Error)
	}
	return nil
}

// TouchLastSync records the end of a sync pass
func (r *Repository) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	result := r.conn(ctx).Model(&model.SyncCredential{}).Where("id = ?", id).Update("last_sync_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to update last sync: %w", result.Error)
	}
	return nil
}

func (r *Repository) SetSyncEnabled(ctx context.Context, userID, provider string, enabled bool) (bool, error) {
	result := r.conn(ctx).
		Model(&model.SyncCredential{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Update("sync_enabled", enabled)
	if result.Error != nil {
		return false, fmt.Errorf("failed to toggle sync: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteCredential is the explicit disconnect
func (r *Repository) DeleteCredential(ctx context.Context, userID, provider string) (bool, error) {
	result := r.conn(ctx).Where("user_id = ? AND provider = ?", userID, provider).Delete(&model.SyncCredential{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete sync credential: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListEnabledCredentials returns every credential with sync enabled, across users
func (r *Repository) ListEnabledCredentials(ctx context.Context) ([]model.SyncCredential, error) {
	var creds []model.SyncCredential
	result := r.conn(ctx).Where("sync_enabled = ?", true).Order("user_id, provider").Find(&creds)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list enabled credentials: %w", result.Error)
	}
	return creds, nil
}
