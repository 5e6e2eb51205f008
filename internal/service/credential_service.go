package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zlatko/internal/events"
	"zlatko/internal/mailbox"
	"zlatko/internal/model"
)

// CodeExchanger trades an OAuth authorization code for tokens
type CodeExchanger func(ctx context.Context, code string) (*mailbox.Token, error)

// ConnectInput carries either an authorization code or tokens obtained elsewhere
type ConnectInput struct {
	Code         string    `json:"code"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	EmailAddress string    `json:"email_address"`
}

// CredentialService manages the (user, provider) mailbox connection
type CredentialService struct {
	store     CRMStore
	providers mailbox.Registry
	exchange  CodeExchanger
	publisher events.Publisher
}

func NewCredentialService(store CRMStore, providers mailbox.Registry, exchange CodeExchanger, publisher events.Publisher) *CredentialService {
	return &CredentialService{store: store, providers: providers, exchange: exchange, publisher: publisher}
}

func (s *CredentialService) Status(ctx context.Context, userID, provider string) (*model.SyncCredential, error) {
	cred, err := s.store.GetCredential(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNotConnected
	}
	return cred, nil
}

// Connect stores the credential of a completed OAuth handshake
func (s *CredentialService) Connect(ctx context.Context, userID, providerName string, in ConnectInput) (*model.SyncCredential, error) {
	provider, ok := s.providers.Get(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerName)
	}

	tok := &mailbox.Token{AccessToken: in.AccessToken, RefreshToken: in.RefreshToken, Expiry: in.Expiry}
	if code := strings.TrimSpace(in.Code); code != "" {
		if s.exchange == nil {
			return nil, fmt.Errorf("%w: code exchange is not configured", ErrUnsupportedProvider)
		}
		exchanged, err := s.exchange(ctx, code)
		if err != nil {
			return nil, err
		}
		tok = exchanged
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: code or access_token", ErrMissingInput)
	}

	// Google only returns a refresh token on first consent
	if tok.RefreshToken == "" {
		existing, err := s.store.GetCredential(ctx, userID, providerName)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			tok.RefreshToken = existing.RefreshToken
		}
	}

	address := strings.TrimSpace(in.EmailAddress)
	if address == "" {
		session, err := provider.Open(ctx, mailbox.Account{AccessToken: tok.AccessToken})
		if err != nil {
			return nil, fmt.Errorf("%w: email_address (%v)", ErrMissingInput, err)
		}
		address, err = session.Address(ctx)
		session.Close()
		if err != nil {
			return nil, err
		}
	}

	cred := &model.SyncCredential{
		UserID:       userID,
		Provider:     providerName,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry,
		EmailAddress: address,
		SyncEnabled:  true,
	}
	if err := s.store.UpsertCredential(ctx, cred); err != nil {
		return nil, err
	}

	stored, err := s.Status(ctx, userID, providerName)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, userID, events.ActionUpdate, stored.ID)
	return stored, nil
}

func (s *CredentialService) SetSyncEnabled(ctx context.Context, userID, provider string, enabled bool) error {
	ok, err := s.store.SetSyncEnabled(ctx, userID, provider, enabled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConnected
	}
	s.publish(ctx, userID, events.ActionUpdate, provider)
	return nil
}

// Disconnect deletes the credential
func (s *CredentialService) Disconnect(ctx context.Context, userID, provider string) error {
	ok, err := s.store.DeleteCredential(ctx, userID, provider)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConnected
	}
	s.publish(ctx, userID, events.ActionDelete, provider)
	return nil
}

func (s *CredentialService) publish(ctx context.Context, userID string, action events.Action, id string) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.Event{UserID: userID, Table: "sync_credentials", Action: action, RowID: id})
	}
}
