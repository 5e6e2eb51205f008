package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"zlatko/internal/mailbox"
	"zlatko/internal/metrics"
	"zlatko/internal/model"
)

// TokenManager hands out a credential whose access token is not expired
type TokenManager struct {
	creds   CredentialStore
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewTokenManager(creds CredentialStore, m *metrics.Metrics) *TokenManager {
	return &TokenManager{creds: creds, metrics: m, now: time.Now}
}

// EnsureFresh loads the (user, provider) credential and refreshes it when
// its expiry is in the past. The refreshed token is persisted before it is
// returned.
func (t *TokenManager) EnsureFresh(ctx context.Context, userID string, provider mailbox.Provider) (*model.SyncCredential, error) {
	cred, err := t.creds.GetCredential(ctx, userID, provider.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		return nil, ErrNotConnected
	}

	if !cred.Expired(t.now()) {
		return cred, nil
	}

	logger := logrus.WithFields(logrus.Fields{"user_id": userID, "provider": provider.Name()})
	logger.Info("Access token expired, refreshing")

	tok, err := provider.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		t.observe(provider.Name(), "failed")
		return nil, fmt.Errorf("%w: %v", ErrTokenRefresh, err)
	}

	if err := t.creds.UpdateToken(ctx, cred.ID, tok.AccessToken, tok.RefreshToken, tok.Expiry); err != nil {
		t.observe(provider.Name(), "failed")
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	t.observe(provider.Name(), "success")

	cred.AccessToken = tok.AccessToken
	cred.TokenExpiry = tok.Expiry
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	return cred, nil
}

func (t *TokenManager) observe(provider, outcome string) {
	if t.metrics != nil {
		t.metrics.TokenRefreshes.WithLabelValues(provider, outcome).Inc()
	}
}
