package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"zlatko/internal/model"
)

// CommunicationExists reports whether a message was already imported for the prospect
func (r *Repository) CommunicationExists(ctx context.Context, userID, prospectID, externalMessageID string) (bool, error) {
	var count int64
	result := r.conn(ctx).
		Model(&model.Communication{}).
		Where("user_id = ? AND prospect_id = ? AND external_message_id = ?", userID, prospectID, externalMessageID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("database error checking imported message: %w", result.Error)
	}
	return count > 0, nil
}

// CreateCommunication inserts a communication. A unique index violation is
// returned wrapping gorm.ErrDuplicatedKey.
func (r *Repository) CreateCommunication(ctx context.Context, comm *model.Communication) error {
	if comm.ID == "" {
		comm.ID = uuid.NewString()
	}
	if err := r.conn(ctx).Create(comm).Error; err != nil {
		return fmt.Errorf("failed to create communication: %w", err)
	}
	return nil
}

// LatestCommunication returns the newest communication of a prospect, nil if there is none
func (r *Repository) LatestCommunication(ctx context.Context, userID, prospectID string) (*model.Communication, error) {
	var comm model.Communication
	result := r.conn(ctx).
		Where("user_id = ? AND prospect_id = ?", userID, prospectID).
		Order("created_at DESC").
		First(&comm)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest communication: %w", result.Error)
	}
	return &comm, nil
}

// ListCommunications returns the prospect's communications, newest first
func (r *Repository) ListCommunications(ctx context.Context, userID, prospectID string) ([]model.Communication, error) {
	var comms []model.Communication
	result := r.conn(ctx).
		Where("user_id = ? AND prospect_id = ?", userID, prospectID).
		Order("created_at DESC").
		Find(&comms)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list communications: %w", result.Error)
	}
	return comms, nil
}

func (r *Repository) DeleteCommunication(ctx context.Context, userID, id string) (bool, error) {
	result := r.conn(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.Communication{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete communication: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
