package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zlatko/internal/model"
)

// ListProspects returns the user's prospects, optionally filtered by archived state
func (r *Repository) ListProspects(ctx context.Context, userID string, archived *bool) ([]model.Prospect, error) {
	var prospects []model.Prospect
	q := r.conn(ctx).Where("user_id = ?", userID)
	if archived != nil {
		q = q.Where("archived = ?", *archived)
	}
	if err := q.Order("company ASC, id ASC").Find(&prospects).Error; err != nil {
		return nil, fmt.Errorf("failed to list prospects: %w", err)
	}
	return prospects, nil
}

// ListActiveProspects returns non-archived prospects in a stable id order
func (r *Repository) ListActiveProspects(ctx context.Context, userID string) ([]model.Prospect, error) {
	var prospects []model.Prospect
	result := r.conn(ctx).
		Where("user_id = ? AND archived = ?", userID, false).
		Order("id ASC").
		Find(&prospects)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list active prospects: %w", result.Error)
	}
	return prospects, nil
}

// ListSyncableProspects returns non-archived prospects that have an email address
func (r *Repository) ListSyncableProspects(ctx context.Context, userID string) ([]model.Prospect, error) {
	var prospects []model.Prospect
	result := r.conn(ctx).
		Where("user_id = ? AND archived = ? AND email <> ?", userID, false, "").
		Order("id ASC").
		Find(&prospects)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list syncable prospects: %w", result.Error)
	}
	return prospects, nil
}

// ListProspectOwners returns every user id that owns at least one prospect
func (r *Repository) ListProspectOwners(ctx context.Context) ([]string, error) {
	var userIDs []string
	result := r.conn(ctx).Model(&model.Prospect{}).Distinct().Order("user_id").Pluck("user_id", &userIDs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list prospect owners: %w", result.Error)
	}
	return userIDs, nil
}

// GetProspect returns nil when the prospect does not exist for the user
func (r *Repository) GetProspect(ctx context.Context, userID, id string) (*model.Prospect, error) {
	var prospect model.Prospect
	result := r.conn(ctx).Where("user_id = ? AND id = ?", userID, id).First(&prospect)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prospect: %w", result.Error)
	}
	return &prospect, nil
}

func (r *Repository) CreateProspect(ctx context.Context, prospect *model.Prospect) error {
	if prospect.ID == "" {
		prospect.ID = uuid.NewString()
	}
	if err := r.conn(ctx).Create(prospect).Error; err != nil {
		return fmt.Errorf("failed to create prospect: %w", err)
	}
	return nil
}

// UpdateProspect saves every editable field of the prospect
func (r *Repository) UpdateProspect(ctx context.Context, prospect *model.Prospect) error {
	result := r.conn(ctx).
		Model(&model.Prospect{}).
		Where("user_id = ? AND id = ?", prospect.UserID, prospect.ID).
		Select("company", "contact_name", "email", "stage", "notes", "archived", "last_contact_date").
		Updates(prospect)
	if result.Error != nil {
		return fmt.Errorf("failed to update prospect: %w", result.Error)
	}
	return nil
}

// SetArchived flips the archived flag and reports whether a row matched
func (r *Repository) SetArchived(ctx context.Context, userID, id string, archived bool) (bool, error) {
	result := r.conn(ctx).
		Model(&model.Prospect{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("archived", archived)
	if result.Error != nil {
		return false, fmt.Errorf("failed to archive prospect: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetLastContactDate overwrites the cached last contact date
func (r *Repository) SetLastContactDate(ctx context.Context, userID, id string, date *time.Time) error {
	result := r.conn(ctx).
		Model(&model.Prospect{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("last_contact_date", date)
	if result.Error != nil {
		return fmt.Errorf("failed to set last contact date: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to set last contact date: prospect %s not found", id)
	}
	return nil
}

// DeleteProspect removes the prospect and its communications
func (r *Repository) DeleteProspect(ctx context.Context, userID, id string) (bool, error) {
	var deleted bool
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND prospect_id = ?", userID, id).Delete(&model.Communication{}).Error; err != nil {
			return err
		}
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.Prospect{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete prospect: %w", err)
	}
	return deleted, nil
}
