package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"zlatko/internal/events"
	"zlatko/internal/mailbox"
	"zlatko/internal/metrics"
	"zlatko/internal/model"
	"zlatko/internal/textgen"
)

const noSubject = "(No Subject)"

// ImportTarget identifies the prospect a message is imported for
type ImportTarget struct {
	UserID        string
	ProspectID    string
	ProspectEmail string
	Provider      string
}

// Importer turns a transport message into a Communication, at most once per
// (user, prospect, external message id).
type Importer struct {
	comms           CommunicationStore
	generator       textgen.Generator
	publisher       events.Publisher
	metrics         *metrics.Metrics
	outboundAuthor  string
	summaryMaxChars int
}

// NewImporter creates an importer. generator may be nil, which disables summaries.
func NewImporter(comms CommunicationStore, generator textgen.Generator, publisher events.Publisher, m *metrics.Metrics, outboundAuthor string, summaryMaxChars int) *Importer {
	if summaryMaxChars <= 0 {
		summaryMaxChars = 2000
	}
	return &Importer{
		comms:           comms,
		generator:       generator,
		publisher:       publisher,
		metrics:         m,
		outboundAuthor:  outboundAuthor,
		summaryMaxChars: summaryMaxChars,
	}
}

// Import reports true when a new communication was written and false when
// the message had already been imported. now is the pass execution time and
// stands in for a missing or unparsable Date header.
func (i *Importer) Import(ctx context.Context, target ImportTarget, session mailbox.Session, messageID string, now time.Time) (bool, error) {
	exists, err := i.comms.CommunicationExists(ctx, target.UserID, target.ProspectID, messageID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	msg, err := session.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}

	subject, _ := msg.Header("Subject")
	if strings.TrimSpace(subject) == "" {
		subject = noSubject
	}
	from, _ := msg.Header("From")
	to, _ := msg.Header("To")
	dateHeader, _ := msg.Header("Date")

	direction := ClassifyDirection(from, target.ProspectEmail)
	author := from
	if direction == model.DirectionOutbound {
		author = i.outboundAuthor
	}

	body := DecodeBody(msg.Payload)
	externalID := messageID
	syncedAt := now

	comm := &model.Communication{
		UserID:            target.UserID,
		ProspectID:        target.ProspectID,
		Type:              model.CommunicationEmail,
		Subject:           subject,
		Content:           body,
		Direction:         direction,
		Author:            author,
		Recipient:         to,
		AISummary:         i.summarize(ctx, body),
		ExternalMessageID: &externalID,
		ExternalThreadID:  msg.ThreadID,
		SyncedFrom:        target.Provider,
		SyncedAt:          &syncedAt,
		CreatedAt:         ParseMessageDate(dateHeader, now),
	}

	if err := i.comms.CreateCommunication(ctx, comm); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// a concurrent pass imported it first
			return false, nil
		}
		return false, fmt.Errorf("failed to store message %s: %w", messageID, err)
	}

	if i.publisher != nil {
		i.publisher.Publish(ctx, events.Event{
			UserID: target.UserID,
			Table:  "communications",
			Action: events.ActionInsert,
			RowID:  comm.ID,
		})
	}
	return true, nil
}

func (i *Importer) summarize(ctx context.Context, body string) string {
	if i.generator == nil || strings.TrimSpace(body) == "" {
		return ""
	}

	summary, err := i.generator.Generate(ctx, textgen.SummaryPrompt(truncateRunes(body, i.summaryMaxChars)))
	if err != nil {
		logrus.Warnf("Summary generation failed: %v", err)
		if i.metrics != nil {
			i.metrics.SummaryFailures.Inc()
		}
		return ""
	}
	return strings.TrimSpace(summary)
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

var trailingComment = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// ParseMessageDate parses an RFC 5322 Date header into UTC, falling back
// to fallback when the header is empty or malformed.
func ParseMessageDate(header string, fallback time.Time) time.Time {
	header = strings.TrimSpace(trailingComment.ReplaceAllString(header, ""))
	if header == "" {
		return fallback
	}
	t, err := mail.ParseDate(header)
	if err != nil {
		return fallback
	}
	return t.UTC()
}
