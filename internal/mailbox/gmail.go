package mailbox

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"zlatko/internal/model"
)

// GmailProvider talks to the Gmail REST API
type GmailProvider struct {
	oauth *oauth2.Config
	opts  []option.ClientOption
}

// NewGmailProvider creates a Gmail provider. Extra client options are
// appended to every service, which lets tests point it at a fake endpoint.
func NewGmailProvider(oauthCfg *oauth2.Config, opts ...option.ClientOption) *GmailProvider {
	return &GmailProvider{oauth: oauthCfg, opts: opts}
}

func (p *GmailProvider) Name() string {
	return model.ProviderGmail
}

func (p *GmailProvider) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	return refresh(ctx, p.oauth, refreshToken)
}

func (p *GmailProvider) Open(ctx context.Context, account Account) (Session, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: account.AccessToken})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, p.opts...)

	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &gmailSession{service: service}, nil
}

type gmailSession struct {
	service *gmail.Service
}

func (s *gmailSession) ListMessages(ctx context.Context, query string, max int64) ([]string, error) {
	resp, err := s.service.Users.Messages.List("me").Q(query).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (s *gmailSession) GetMessage(ctx context.Context, id string) (*Message, error) {
	msg, err := s.service.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return convertGmailMessage(msg), nil
}

func (s *gmailSession) Address(ctx context.Context) (string, error) {
	profile, err := s.service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

func (s *gmailSession) Close() error {
	return nil
}

func convertGmailMessage(msg *gmail.Message) *Message {
	out := &Message{ID: msg.Id, ThreadID: msg.ThreadId}
	if msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		out.Headers = append(out.Headers, Header{Name: h.Name, Value: h.Value})
	}
	out.Payload = convertGmailPart(msg.Payload)
	return out
}

func convertGmailPart(part *gmail.MessagePart) *Part {
	if part == nil {
		return nil
	}
	out := &Part{MimeType: part.MimeType}
	if part.Body != nil {
		out.Data = part.Body.Data
	}
	for _, child := range part.Parts {
		out.Parts = append(out.Parts, convertGmailPart(child))
	}
	return out
}
