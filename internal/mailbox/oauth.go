package mailbox

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"zlatko/internal/config"
)

// imapScope grants IMAP access to a Gmail mailbox
const imapScope = "https://mail.google.com/"

// NewOAuthConfig builds the Google OAuth client shared by both providers
func NewOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{gmail.GmailReadonlyScope, imapScope},
		Endpoint:     google.Endpoint,
	}
}

// AuthCodeURL returns the consent URL for an offline (refreshable) grant
func AuthCodeURL(oauthCfg *oauth2.Config, state string) string {
	return oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens
func Exchange(ctx context.Context, oauthCfg *oauth2.Config, code string) (*Token, error) {
	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return fromOAuth(tok), nil
}

func refresh(ctx context.Context, oauthCfg *oauth2.Config, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored")
	}
	tok, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return fromOAuth(tok), nil
}

func fromOAuth(tok *oauth2.Token) *Token {
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}
