// Package mailbox adapts OAuth-authenticated mail transports (Gmail API and
// IMAP) to a single list/get/refresh contract.
package mailbox

import (
	"context"
	"strings"
	"time"
)

// Header is one message header as delivered by the transport
type Header struct {
	Name  string
	Value string
}

// Part is a node of a message payload tree. Data holds the body bytes of a
// leaf, base64url encoded. Containers carry their children in Parts.
type Part struct {
	MimeType string
	Data     string
	Parts    []*Part
}

// Message is a fully fetched message
type Message struct {
	ID       string
	ThreadID string
	Headers  []Header
	Payload  *Part
}

// Header returns the first header with the given name, case-insensitively
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Token is the result of an OAuth refresh or code exchange
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Account identifies the mailbox a session is opened for
type Account struct {
	Address     string
	AccessToken string
}

// Provider is a mail transport keyed by name ("gmail", "imap")
type Provider interface {
	Name() string
	RefreshToken(ctx context.Context, refreshToken string) (*Token, error)
	Open(ctx context.Context, account Account) (Session, error)
}

// Session is an authenticated connection to one mailbox.
//
// ListMessages takes a Gmail-style query ("from:a OR to:a") and returns at
// most max message ids, newest first.
type Session interface {
	ListMessages(ctx context.Context, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*Message, error)
	Address(ctx context.Context) (string, error)
	Close() error
}

// Registry resolves providers by name
type Registry map[string]Provider

func NewRegistry(providers ...Provider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		r[p.Name()] = p
	}
	return r
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
