package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"zlatko/internal/database"
	"zlatko/internal/model"
)

type RepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo *Repository
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(database.Migrate(db))
	s.repo = New(db)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (s *RepositorySuite) createProspect(userID, company, email string, archived bool) *model.Prospect {
	p := &model.Prospect{UserID: userID, Company: company, Email: email}
	s.Require().NoError(s.repo.CreateProspect(s.ctx, p))
	if archived {
		ok, err := s.repo.SetArchived(s.ctx, userID, p.ID, true)
		s.Require().NoError(err)
		s.Require().True(ok)
		p.Archived = true
	}
	return p
}

func (s *RepositorySuite) TestProspect_CreateAssignsIDAndDefaults() {
	p := s.createProspect("u1", "Acme", "alice@acme.com", false)

	s.NotEmpty(p.ID)
	got, err := s.repo.GetProspect(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("Acme", got.Company)
	s.Equal("lead", got.Stage)
	s.False(got.Archived)
	s.Nil(got.LastContactDate)
}

func (s *RepositorySuite) TestProspect_ScopedToUser() {
	p := s.createProspect("u1", "Acme", "", false)

	got, err := s.repo.GetProspect(s.ctx, "u2", p.ID)
	s.Require().NoError(err)
	s.Nil(got)

	list, err := s.repo.ListProspects(s.ctx, "u2", nil)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RepositorySuite) TestProspect_ListFilters() {
	s.createProspect("u1", "Active", "a@x.com", false)
	s.createProspect("u1", "NoEmail", "", false)
	s.createProspect("u1", "Old", "o@x.com", true)

	archived := true
	list, err := s.repo.ListProspects(s.ctx, "u1", &archived)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Old", list[0].Company)

	active, err := s.repo.ListActiveProspects(s.ctx, "u1")
	s.Require().NoError(err)
	s.Len(active, 2)

	syncable, err := s.repo.ListSyncableProspects(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(syncable, 1)
	s.Equal("Active", syncable[0].Company)
}

func (s *RepositorySuite) TestProspect_ListOwners() {
	s.createProspect("u2", "B", "", false)
	s.createProspect("u1", "A", "", false)
	s.createProspect("u1", "C", "", false)

	owners, err := s.repo.ListProspectOwners(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"u1", "u2"}, owners)
}

func (s *RepositorySuite) TestProspect_SetLastContactDate() {
	p := s.createProspect("u1", "Acme", "", false)

	s.Require().NoError(s.repo.SetLastContactDate(s.ctx, "u1", p.ID, date(2024, 3, 10)))

	got, err := s.repo.GetProspect(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.LastContactDate)
	s.Equal("2024-03-10", model.FormatDay(got.LastContactDate))

	s.Error(s.repo.SetLastContactDate(s.ctx, "u1", "missing", date(2024, 3, 10)))
}

func (s *RepositorySuite) TestProspect_Update() {
	p := s.createProspect("u1", "Acme", "", false)

	p.Company = "Acme Corp"
	p.Stage = "negotiation"
	p.Email = "buyer@acme.com"
	s.Require().NoError(s.repo.UpdateProspect(s.ctx, p))

	got, err := s.repo.GetProspect(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.Equal("Acme Corp", got.Company)
	s.Equal("negotiation", got.Stage)
	s.Equal("buyer@acme.com", got.Email)
}

func (s *RepositorySuite) TestProspect_DeleteRemovesCommunications() {
	p := s.createProspect("u1", "Acme", "", false)
	s.Require().NoError(s.repo.CreateCommunication(s.ctx, &model.Communication{
		UserID: "u1", ProspectID: p.ID, Type: model.CommunicationNote,
	}))

	deleted, err := s.repo.DeleteProspect(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.True(deleted)

	comms, err := s.repo.ListCommunications(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.Empty(comms)

	deleted, err = s.repo.DeleteProspect(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *RepositorySuite) TestCommunication_DedupIndex() {
	p := s.createProspect("u1", "Acme", "", false)
	extID := "msg-1"

	first := &model.Communication{UserID: "u1", ProspectID: p.ID, Type: model.CommunicationEmail, ExternalMessageID: &extID}
	s.Require().NoError(s.repo.CreateCommunication(s.ctx, first))

	exists, err := s.repo.CommunicationExists(s.ctx, "u1", p.ID, extID)
	s.Require().NoError(err)
	s.True(exists)

	dup := &model.Communication{UserID: "u1", ProspectID: p.ID, Type: model.CommunicationEmail, ExternalMessageID: &extID}
	err = s.repo.CreateCommunication(s.ctx, dup)
	s.Require().Error(err)
	s.True(errors.Is(err, gorm.ErrDuplicatedKey))

	// manual entries have no external id and never collide
	s.NoError(s.repo.CreateCommunication(s.ctx, &model.Communication{UserID: "u1", ProspectID: p.ID, Type: model.CommunicationCall}))
	s.NoError(s.repo.CreateCommunication(s.ctx, &model.Communication{UserID: "u1", ProspectID: p.ID, Type: model.CommunicationCall}))

	other := s.createProspect("u1", "Other", "", false)
	exists, err = s.repo.CommunicationExists(s.ctx, "u1", other.ID, extID)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositorySuite) TestCommunication_LatestAndList() {
	p := s.createProspect("u1", "Acme", "", false)

	latest, err := s.repo.LatestCommunication(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.Nil(latest)

	for _, d := range []*time.Time{date(2024, 1, 5), date(2024, 3, 10), date(2024, 2, 1)} {
		s.Require().NoError(s.repo.CreateCommunication(s.ctx, &model.Communication{
			UserID: "u1", ProspectID: p.ID, Type: model.CommunicationNote, CreatedAt: *d,
		}))
	}

	latest, err = s.repo.LatestCommunication(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Equal("2024-03-10", latest.CreatedAt.UTC().Format("2006-01-02"))

	list, err := s.repo.ListCommunications(s.ctx, "u1", p.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.True(list[0].CreatedAt.After(list[1].CreatedAt))
	s.True(list[1].CreatedAt.After(list[2].CreatedAt))

	deleted, err := s.repo.DeleteCommunication(s.ctx, "u1", list[0].ID)
	s.Require().NoError(err)
	s.True(deleted)
}

func (s *RepositorySuite) TestCredential_Lifecycle() {
	cred, err := s.repo.GetCredential(s.ctx, "u1", model.ProviderGmail)
	s.Require().NoError(err)
	s.Nil(cred)

	expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	s.Require().NoError(s.repo.UpsertCredential(s.ctx, &model.SyncCredential{
		UserID: "u1", Provider: model.ProviderGmail,
		AccessToken: "a1", RefreshToken: "r1", TokenExpiry: expiry,
		EmailAddress: "me@agency.com", SyncEnabled: true,
	}))

	cred, err = s.repo.GetCredential(s.ctx, "u1", model.ProviderGmail)
	s.Require().NoError(err)
	s.Require().NotNil(cred)
	s.Equal("a1", cred.AccessToken)
	s.True(cred.SyncEnabled)

	// second handshake updates the same row
	s.Require().NoError(s.repo.UpsertCredential(s.ctx, &model.SyncCredential{
		UserID: "u1", Provider: model.ProviderGmail,
		AccessToken: "a2", RefreshToken: "r2", TokenExpiry: expiry,
		EmailAddress: "me@agency.com", SyncEnabled: true,
	}))
	again, err := s.repo.GetCredential(s.ctx, "u1", model.ProviderGmail)
	s.Require().NoError(err)
	s.Equal(cred.ID, again.ID)
	s.Equal("a2", again.AccessToken)

	s.Require().NoError(s.repo.UpdateToken(s.ctx, cred.ID, "a3", "", expiry.Add(time.Hour)))
	again, err = s.repo.GetCredential(s.ctx, "u1", model.ProviderGmail)
	s.Require().NoError(err)
	s.Equal("a3", again.AccessToken)
	s.Equal("r2", again.RefreshToken)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	s.Require().NoError(s.repo.TouchLastSync(s.ctx, cred.ID, syncedAt))

	ok, err := s.repo.SetSyncEnabled(s.ctx, "u1", model.ProviderGmail, false)
	s.Require().NoError(err)
	s.True(ok)

	enabled, err := s.repo.ListEnabledCredentials(s.ctx)
	s.Require().NoError(err)
	s.Empty(enabled)

	again, err = s.repo.GetCredential(s.ctx, "u1", model.ProviderGmail)
	s.Require().NoError(err)
	s.Require().NotNil(again.LastSyncAt)
	s.True(again.LastSyncAt.Equal(syncedAt))

	deleted, err := s.repo.DeleteCredential(s.ctx, "u1", model.ProviderGmail)
	s.Require().NoError(err)
	s.True(deleted)
}
