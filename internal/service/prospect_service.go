package service

import (
	"context"
	"fmt"
	"strings"

	"zlatko/internal/events"
	"zlatko/internal/model"
	"zlatko/internal/textgen"
)

const draftHistory = 5

// ProspectInput holds the editable fields of a prospect
type ProspectInput struct {
	Company     string `json:"company"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Stage       string `json:"stage"`
	Notes       string `json:"notes"`
}

// ProspectService is the CRUD surface over prospects
type ProspectService struct {
	store     CRMStore
	generator textgen.Generator
	publisher events.Publisher
}

func NewProspectService(store CRMStore, generator textgen.Generator, publisher events.Publisher) *ProspectService {
	return &ProspectService{store: store, generator: generator, publisher: publisher}
}

func (s *ProspectService) List(ctx context.Context, userID string, archived *bool) ([]model.Prospect, error) {
	return s.store.ListProspects(ctx, userID, archived)
}

func (s *ProspectService) Get(ctx context.Context, userID, id string) (*model.Prospect, error) {
	p, err := s.store.GetProspect(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("prospect %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *ProspectService) Create(ctx context.Context, userID string, in ProspectInput) (*model.Prospect, error) {
	if strings.TrimSpace(in.Company) == "" {
		return nil, fmt.Errorf("%w: company", ErrMissingInput)
	}

	p := &model.Prospect{UserID: userID}
	applyProspectInput(p, in)
	if err := s.store.CreateProspect(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, userID, events.ActionInsert, p.ID)
	return p, nil
}

func (s *ProspectService) Update(ctx context.Context, userID, id string, in ProspectInput) (*model.Prospect, error) {
	if strings.TrimSpace(in.Company) == "" {
		return nil, fmt.Errorf("%w: company", ErrMissingInput)
	}

	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	applyProspectInput(p, in)
	if err := s.store.UpdateProspect(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, userID, events.ActionUpdate, p.ID)
	return p, nil
}

func (s *ProspectService) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	ok, err := s.store.SetArchived(ctx, userID, id, archived)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("prospect %s: %w", id, ErrNotFound)
	}

	s.publish(ctx, userID, events.ActionUpdate, id)
	return nil
}

func (s *ProspectService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.store.DeleteProspect(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("prospect %s: %w", id, ErrNotFound)
	}

	s.publish(ctx, userID, events.ActionDelete, id)
	return nil
}

// Draft asks the generator for an outreach email and returns it as a tagged result
func (s *ProspectService) Draft(ctx context.Context, userID, id, instructions string) (*textgen.Draft, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no text generator configured", ErrGeneration)
	}

	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.ListCommunications(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if len(recent) > draftHistory {
		recent = recent[:draftHistory]
	}

	output, err := s.generator.Generate(ctx, textgen.DraftPrompt(*p, recent, instructions))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	draft := textgen.ParseDraft(output)
	return &draft, nil
}

func (s *ProspectService) publish(ctx context.Context, userID string, action events.Action, id string) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.Event{UserID: userID, Table: "prospects", Action: action, RowID: id})
	}
}

func applyProspectInput(p *model.Prospect, in ProspectInput) {
	p.Company = strings.TrimSpace(in.Company)
	p.ContactName = strings.TrimSpace(in.ContactName)
	p.Email = strings.TrimSpace(in.Email)
	p.Notes = in.Notes
	if stage := strings.TrimSpace(in.Stage); stage != "" {
		p.Stage = stage
	}
}
