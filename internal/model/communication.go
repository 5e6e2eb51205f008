package model

import (
	"time"
)

// CommunicationType enumerates the kinds of logged interactions
type CommunicationType string

const (
	CommunicationEmail   CommunicationType = "email"
	CommunicationCall    CommunicationType = "call"
	CommunicationMeeting CommunicationType = "meeting"
	CommunicationNote    CommunicationType = "note"
)

// Valid reports whether t is a known communication type
func (t CommunicationType) Valid() bool {
	switch t {
	case CommunicationEmail, CommunicationCall, CommunicationMeeting, CommunicationNote:
		return true
	}
	return false
}

// Direction tells whether the operator sent or received a communication
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Communication is one logged interaction tied to a prospect.
//
// ExternalMessageID is nullable so that manual entries never collide on the
// (user, prospect, external message) unique index.
type Communication struct {
	ID                string            `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID            string            `json:"user_id" gorm:"type:varchar(64);not null;index;uniqueIndex:idx_communications_dedup,priority:1"`
	ProspectID        string            `json:"prospect_id" gorm:"type:varchar(36);not null;index:idx_communications_prospect_created,priority:1;uniqueIndex:idx_communications_dedup,priority:2"`
	Type              CommunicationType `json:"type" gorm:"type:varchar(20);not null"`
	Subject           string            `json:"subject" gorm:"type:varchar(998)"`
	Content           string            `json:"content" gorm:"type:text"`
	Direction         Direction         `json:"direction" gorm:"type:varchar(10)"`
	Author            string            `json:"author" gorm:"type:varchar(255)"`
	Recipient         string            `json:"recipient,omitempty" gorm:"type:varchar(998)"`
	AISummary         string            `json:"ai_summary" gorm:"type:text"`
	ExternalMessageID *string           `json:"external_message_id,omitempty" gorm:"type:varchar(255);uniqueIndex:idx_communications_dedup,priority:3"`
	ExternalThreadID  string            `json:"external_thread_id,omitempty" gorm:"type:varchar(255)"`
	SyncedFrom        string            `json:"synced_from,omitempty" gorm:"type:varchar(50)"`
	SyncedAt          *time.Time        `json:"synced_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at" gorm:"index:idx_communications_prospect_created,priority:2"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName specifies the table name for Communication
func (Communication) TableName() string {
	return "communications"
}
