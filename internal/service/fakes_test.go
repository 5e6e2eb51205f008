package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"zlatko/internal/events"
	"zlatko/internal/mailbox"
	"zlatko/internal/metrics"
	"zlatko/internal/model"
)

// memStore is an in-memory object store
type memStore struct {
	mu        sync.Mutex
	prospects map[string]*model.Prospect
	comms     []*model.Communication
	creds     map[string]*model.SyncCredential

	existsErr     map[string]error
	createErr     map[string]error
	latestErr     map[string]error
	setLastErr    map[string]error
	listErr       error
	touchErr      error
	setLastCalls  int
	tokenUpdates  int
	lastSyncTimes []time.Time
}

func newMemStore() *memStore {
	return &memStore{
		prospects:  make(map[string]*model.Prospect),
		creds:      make(map[string]*model.SyncCredential),
		existsErr:  make(map[string]error),
		createErr:  make(map[string]error),
		latestErr:  make(map[string]error),
		setLastErr: make(map[string]error),
	}
}

func credKey(userID, provider string) string {
	return userID + "|" + provider
}

func (s *memStore) addProspect(p model.Prospect) *model.Prospect {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.prospects[p.ID] = &p
	return &p
}

func (s *memStore) addComm(c model.Communication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.comms = append(s.comms, &c)
}

func (s *memStore) addCredential(c model.SyncCredential) *model.SyncCredential {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.creds[credKey(c.UserID, c.Provider)] = &c
	return &c
}

func (s *memStore) commsFor(userID, prospectID string) []model.Communication {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Communication
	for _, c := range s.comms {
		if c.UserID == userID && c.ProspectID == prospectID {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) prospect(id string) model.Prospect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.prospects[id]
}

func (s *memStore) CommunicationExists(ctx context.Context, userID, prospectID, externalMessageID string) (bool, error) {
	if err := s.existsErr[externalMessageID]; err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comms {
		if c.UserID == userID && c.ProspectID == prospectID && c.ExternalMessageID != nil && *c.ExternalMessageID == externalMessageID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateCommunication(ctx context.Context, comm *model.Communication) error {
	if comm.ExternalMessageID != nil {
		if err := s.createErr[*comm.ExternalMessageID]; err != nil {
			return err
		}
		exists, _ := s.CommunicationExists(ctx, comm.UserID, comm.ProspectID, *comm.ExternalMessageID)
		if exists {
			return fmt.Errorf("failed to create communication: %w", gorm.ErrDuplicatedKey)
		}
	}
	if comm.ID == "" {
		comm.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *comm
	s.comms = append(s.comms, &c)
	return nil
}

func (s *memStore) LatestCommunication(ctx context.Context, userID, prospectID string) (*model.Communication, error) {
	if err := s.latestErr[prospectID]; err != nil {
		return nil, err
	}
	comms := s.commsFor(userID, prospectID)
	if len(comms) == 0 {
		return nil, nil
	}
	return &comms[0], nil
}

func (s *memStore) ListCommunications(ctx context.Context, userID, prospectID string) ([]model.Communication, error) {
	return s.commsFor(userID, prospectID), nil
}

func (s *memStore) DeleteCommunication(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comms {
		if c.UserID == userID && c.ID == id {
			s.comms = append(s.comms[:i], s.comms[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListProspects(ctx context.Context, userID string, archived *bool) ([]model.Prospect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Prospect
	for _, p := range s.prospects {
		if p.UserID == userID && (archived == nil || p.Archived == *archived) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListActiveProspects(ctx context.Context, userID string) ([]model.Prospect, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	active := false
	return s.ListProspects(ctx, userID, &active)
}

func (s *memStore) GetProspect(ctx context.Context, userID, id string) (*model.Prospect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prospects[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) CreateProspect(ctx context.Context, prospect *model.Prospect) error {
	if prospect.ID == "" {
		prospect.ID = uuid.NewString()
	}
	if prospect.Stage == "" {
		prospect.Stage = "lead"
	}
	s.addProspect(*prospect)
	return nil
}

func (s *memStore) UpdateProspect(ctx context.Context, prospect *model.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *prospect
	s.prospects[prospect.ID] = &cp
	return nil
}

func (s *memStore) SetArchived(ctx context.Context, userID, id string, archived bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prospects[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	p.Archived = archived
	return true, nil
}

func (s *memStore) SetLastContactDate(ctx context.Context, userID, id string, date *time.Time) error {
	if err := s.setLastErr[id]; err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLastCalls++
	p, ok := s.prospects[id]
	if !ok || p.UserID != userID {
		return fmt.Errorf("prospect %s not found", id)
	}
	if date == nil {
		p.LastContactDate = nil
	} else {
		d := *date
		p.LastContactDate = &d
	}
	return nil
}

func (s *memStore) DeleteProspect(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prospects[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(s.prospects, id)
	return true, nil
}

func (s *memStore) GetCredential(ctx context.Context, userID, provider string) (*model.SyncCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[credKey(userID, provider)]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) UpsertCredential(ctx context.Context, cred *model.SyncCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := credKey(cred.UserID, cred.Provider)
	if existing, ok := s.creds[key]; ok {
		cred.ID = existing.ID
	} else if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	cp := *cred
	s.creds[key] = &cp
	return nil
}

func (s *memStore) UpdateToken(ctx context.Context, id, accessToken, refreshToken string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creds {
		if c.ID == id {
			s.tokenUpdates++
			c.AccessToken = accessToken
			c.TokenExpiry = expiry
			if refreshToken != "" {
				c.RefreshToken = refreshToken
			}
			return nil
		}
	}
	return fmt.Errorf("credential %s not found", id)
}

func (s *memStore) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creds {
		if c.ID == id {
			t := at
			c.LastSyncAt = &t
			s.lastSyncTimes = append(s.lastSyncTimes, at)
			return nil
		}
	}
	return fmt.Errorf("credential %s not found", id)
}

func (s *memStore) SetSyncEnabled(ctx context.Context, userID, provider string, enabled bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.creds[credKey(userID, provider)]
	if !ok {
		return false, nil
	}
	c.SyncEnabled = enabled
	return true, nil
}

func (s *memStore) DeleteCredential(ctx context.Context, userID, provider string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := credKey(userID, provider)
	if _, ok := s.creds[key]; !ok {
		return false, nil
	}
	delete(s.creds, key)
	return true, nil
}

type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string {
	if m.name == "" {
		return model.ProviderGmail
	}
	return m.name
}

func (m *mockProvider) RefreshToken(ctx context.Context, refreshToken string) (*mailbox.Token, error) {
	args := m.Called(ctx, refreshToken)
	tok, _ := args.Get(0).(*mailbox.Token)
	return tok, args.Error(1)
}

func (m *mockProvider) Open(ctx context.Context, account mailbox.Account) (mailbox.Session, error) {
	args := m.Called(ctx, account)
	session, _ := args.Get(0).(mailbox.Session)
	return session, args.Error(1)
}

type mockSession struct {
	mock.Mock
}

func (m *mockSession) ListMessages(ctx context.Context, query string, max int64) ([]string, error) {
	args := m.Called(ctx, query, max)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockSession) GetMessage(ctx context.Context, id string) (*mailbox.Message, error) {
	args := m.Called(ctx, id)
	msg, _ := args.Get(0).(*mailbox.Message)
	return msg, args.Error(1)
}

func (m *mockSession) Address(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockSession) Close() error {
	return nil
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) tables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Table+"."+string(e.Action))
	}
	return out
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func textMessage(id, from, date, body string) *mailbox.Message {
	headers := []mailbox.Header{
		{Name: "Subject", Value: "Subject " + id},
		{Name: "From", Value: from},
		{Name: "To", Value: "me@agency.com"},
	}
	if date != "" {
		headers = append(headers, mailbox.Header{Name: "Date", Value: date})
	}
	return &mailbox.Message{
		ID:       id,
		ThreadID: "thread-" + id,
		Headers:  headers,
		Payload:  &mailbox.Part{MimeType: "text/plain", Data: b64(body)},
	}
}
