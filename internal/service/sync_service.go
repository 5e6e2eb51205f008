package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"zlatko/internal/events"
	"zlatko/internal/mailbox"
	"zlatko/internal/metrics"
	"zlatko/internal/model"
)

// DefaultPageSize caps the messages listed in one pass
const DefaultPageSize = 50

// SyncRequest selects the prospect and mailbox of one sync pass
type SyncRequest struct {
	UserID        string
	Provider      string
	ProspectID    string
	ProspectEmail string
}

// SyncResult holds the aggregate counts of a pass
type SyncResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// SyncService runs sync passes: resolve credentials, list the prospect's
// messages and import each of them.
type SyncService struct {
	providers mailbox.Registry
	tokens    *TokenManager
	creds     CredentialStore
	importer  *Importer
	publisher events.Publisher
	metrics   *metrics.Metrics
	locks     *KeyedMutex
	pageSize  int64
	now       func() time.Time
}

func NewSyncService(providers mailbox.Registry, tokens *TokenManager, creds CredentialStore, importer *Importer, publisher events.Publisher, m *metrics.Metrics, pageSize int) *SyncService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SyncService{
		providers: providers,
		tokens:    tokens,
		creds:     creds,
		importer:  importer,
		publisher: publisher,
		metrics:   m,
		locks:     NewKeyedMutex(),
		pageSize:  int64(pageSize),
		now:       time.Now,
	}
}

// SyncProspect runs one pass. Only whole-pass failures are returned as
// errors; per-message failures are counted as skipped.
func (s *SyncService) SyncProspect(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	req.ProspectID = strings.TrimSpace(req.ProspectID)
	req.ProspectEmail = strings.TrimSpace(req.ProspectEmail)
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user id", ErrMissingInput)
	}
	if req.ProspectID == "" || req.ProspectEmail == "" {
		return nil, fmt.Errorf("%w: prospectId and prospectEmail are required", ErrMissingInput)
	}
	if req.Provider == "" {
		req.Provider = model.ProviderGmail
	}

	provider, ok := s.providers.Get(req.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, req.Provider)
	}

	unlockCred := s.locks.Lock("credential:" + req.UserID + ":" + req.Provider)
	defer unlockCred()
	unlockProspect := s.locks.Lock("prospect:" + req.UserID + ":" + req.ProspectID)
	defer unlockProspect()

	start := time.Now()
	result, err := s.run(ctx, provider, req)
	if s.metrics != nil {
		s.metrics.SyncDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "failed"
		}
		s.metrics.SyncPasses.WithLabelValues(req.Provider, outcome).Inc()
	}
	return result, err
}

func (s *SyncService) run(ctx context.Context, provider mailbox.Provider, req SyncRequest) (*SyncResult, error) {
	logger := logrus.WithFields(logrus.Fields{
		"user_id":     req.UserID,
		"prospect_id": req.ProspectID,
		"provider":    req.Provider,
	})

	cred, err := s.tokens.EnsureFresh(ctx, req.UserID, provider)
	if err != nil {
		return nil, err
	}

	session, err := provider.Open(ctx, mailbox.Account{Address: cred.EmailAddress, AccessToken: cred.AccessToken})
	if err != nil {
		return nil, fmt.Errorf("failed to open mailbox: %w", err)
	}
	defer session.Close()

	query := fmt.Sprintf("from:%s OR to:%s", req.ProspectEmail, req.ProspectEmail)
	ids, err := session.ListMessages(ctx, query, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	now := s.now().UTC()
	target := ImportTarget{
		UserID:        req.UserID,
		ProspectID:    req.ProspectID,
		ProspectEmail: req.ProspectEmail,
		Provider:      req.Provider,
	}

	result := &SyncResult{Total: len(ids)}
	for _, id := range ids {
		imported, err := s.importer.Import(ctx, target, session, id, now)
		switch {
		case err != nil:
			logger.WithField("message_id", id).Warnf("Failed to import message: %v", err)
			result.Skipped++
		case imported:
			result.Imported++
		default:
			result.Skipped++
		}
	}

	if s.metrics != nil {
		s.metrics.MessagesImported.Add(float64(result.Imported))
		s.metrics.MessagesSkipped.Add(float64(result.Skipped))
	}

	if err := s.creds.TouchLastSync(ctx, cred.ID, s.now().UTC()); err != nil {
		logger.Warnf("Failed to record last sync time: %v", err)
	} else if s.publisher != nil {
		s.publisher.Publish(ctx, events.Event{
			UserID: req.UserID,
			Table:  "sync_credentials",
			Action: events.ActionUpdate,
			RowID:  cred.ID,
		})
	}

	logger.Infof("Sync pass completed: imported=%d skipped=%d total=%d", result.Imported, result.Skipped, result.Total)
	return result, nil
}
