package service

import (
	"context"
	"time"

	"zlatko/internal/model"
)

// CommunicationStore is the part of the object store the import and
// reconciliation pipelines read and write.
type CommunicationStore interface {
	CommunicationExists(ctx context.Context, userID, prospectID, externalMessageID string) (bool, error)
	CreateCommunication(ctx context.Context, comm *model.Communication) error
	LatestCommunication(ctx context.Context, userID, prospectID string) (*model.Communication, error)
}

// CredentialStore persists mailbox credentials
type CredentialStore interface {
	GetCredential(ctx context.Context, userID, provider string) (*model.SyncCredential, error)
	UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error
	TouchLastSync(ctx context.Context, id string, at time.Time) error
}

// ProspectStore is what the reconciler needs from prospects
type ProspectStore interface {
	ListActiveProspects(ctx context.Context, userID string) ([]model.Prospect, error)
	SetLastContactDate(ctx context.Context, userID, id string, date *time.Time) error
}

// CRMStore is the full object store surface used by the CRUD services
type CRMStore interface {
	ListProspects(ctx context.Context, userID string, archived *bool) ([]model.Prospect, error)
	GetProspect(ctx context.Context, userID, id string) (*model.Prospect, error)
	CreateProspect(ctx context.Context, prospect *model.Prospect) error
	UpdateProspect(ctx context.Context, prospect *model.Prospect) error
	SetArchived(ctx context.Context, userID, id string, archived bool) (bool, error)
	SetLastContactDate(ctx context.Context, userID, id string, date *time.Time) error
	DeleteProspect(ctx context.Context, userID, id string) (bool, error)

	ListCommunications(ctx context.Context, userID, prospectID string) ([]model.Communication, error)
	CreateCommunication(ctx context.Context, comm *model.Communication) error
	DeleteCommunication(ctx context.Context, userID, id string) (bool, error)

	GetCredential(ctx context.Context, userID, provider string) (*model.SyncCredential, error)
	UpsertCredential(ctx context.Context, cred *model.SyncCredential) error
	SetSyncEnabled(ctx context.Context, userID, provider string, enabled bool) (bool, error)
	DeleteCredential(ctx context.Context, userID, provider string) (bool, error)
}
