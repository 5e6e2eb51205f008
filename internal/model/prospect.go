package model

import (
	"time"
)

// Prospect is a sales lead or client tracked toward a deal outcome
type Prospect struct {
	ID              string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID          string     `json:"user_id" gorm:"type:varchar(64);not null;index:idx_prospects_user_archived,priority:1"`
	Company         string     `json:"company" gorm:"type:varchar(255);not null"`
	ContactName     string     `json:"contact_name" gorm:"type:varchar(255)"`
	Email           string     `json:"email" gorm:"type:varchar(255);index"`
	Stage           string     `json:"stage" gorm:"type:varchar(50);default:'lead'"`
	Notes           string     `json:"notes" gorm:"type:text"`
	Archived        bool       `json:"archived" gorm:"not null;default:false;index:idx_prospects_user_archived,priority:2"`
	LastContactDate *time.Time `json:"last_contact_date" gorm:"type:date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Prospect
func (Prospect) TableName() string {
	return "prospects"
}

// Label is the human readable name used in audit output
func (p Prospect) Label() string {
	if p.Company != "" {
		return p.Company
	}
	return p.ID
}
