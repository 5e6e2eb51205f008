package service

import (
	"context"
	"fmt"
	"time"

	"zlatko/internal/events"
	"zlatko/internal/model"
)

// CommunicationInput is a manually logged interaction
type CommunicationInput struct {
	Type       model.CommunicationType `json:"type"`
	Subject    string                  `json:"subject"`
	Content    string                  `json:"content"`
	Direction  model.Direction         `json:"direction"`
	Author     string                  `json:"author"`
	OccurredAt *time.Time              `json:"occurred_at"`
}

// CommunicationService is the CRUD surface over a prospect's communications
type CommunicationService struct {
	store     CRMStore
	publisher events.Publisher
	now       func() time.Time
}

func NewCommunicationService(store CRMStore, publisher events.Publisher) *CommunicationService {
	return &CommunicationService{store: store, publisher: publisher, now: time.Now}
}

func (s *CommunicationService) List(ctx context.Context, userID, prospectID string) ([]model.Communication, error) {
	if _, err := s.prospect(ctx, userID, prospectID); err != nil {
		return nil, err
	}
	return s.store.ListCommunications(ctx, userID, prospectID)
}

// Create logs a manual communication. When it is newer than the prospect's
// cached last contact date, the cache is advanced.
func (s *CommunicationService) Create(ctx context.Context, userID, prospectID string, in CommunicationInput) (*model.Communication, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: type must be one of email, call, meeting, note", ErrMissingInput)
	}
	if in.Direction == "" {
		in.Direction = model.DirectionOutbound
	}
	if in.Direction != model.DirectionInbound && in.Direction != model.DirectionOutbound {
		return nil, fmt.Errorf("%w: direction must be inbound or outbound", ErrMissingInput)
	}

	p, err := s.prospect(ctx, userID, prospectID)
	if err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	if in.OccurredAt != nil {
		createdAt = in.OccurredAt.UTC()
	}

	comm := &model.Communication{
		UserID:     userID,
		ProspectID: prospectID,
		Type:       in.Type,
		Subject:    in.Subject,
		Content:    in.Content,
		Direction:  in.Direction,
		Author:     in.Author,
		CreatedAt:  createdAt,
	}
	if err := s.store.CreateCommunication(ctx, comm); err != nil {
		return nil, err
	}
	s.publish(ctx, userID, "communications", events.ActionInsert, comm.ID)

	day := model.Day(createdAt)
	if p.LastContactDate == nil || day.After(model.Day(*p.LastContactDate)) {
		if err := s.store.SetLastContactDate(ctx, userID, prospectID, &day); err != nil {
			return nil, err
		}
		s.publish(ctx, userID, "prospects", events.ActionUpdate, prospectID)
	}

	return comm, nil
}

func (s *CommunicationService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.store.DeleteCommunication(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("communication %s: %w", id, ErrNotFound)
	}
	s.publish(ctx, userID, "communications", events.ActionDelete, id)
	return nil
}

func (s *CommunicationService) prospect(ctx context.Context, userID, id string) (*model.Prospect, error) {
	p, err := s.store.GetProspect(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("prospect %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *CommunicationService) publish(ctx context.Context, userID, table string, action events.Action, id string) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.Event{UserID: userID, Table: table, Action: action, RowID: id})
	}
}
