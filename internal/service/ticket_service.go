package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// TicketService coordinates ticket and note workflows and fires the
// lifecycle events the deadline hooks listen on.
type TicketService struct {
	tickets       repository.TicketRepository
	notes         repository.NoteRepository
	projects      repository.ProjectRepository
	customValues  repository.CustomValueRepository
	dispatcher    events.Dispatcher
	productsField string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	NoteRepo        repository.NoteRepository
	ProjectRepo     repository.ProjectRepository
	CustomValueRepo repository.CustomValueRepository
	Dispatcher      events.Dispatcher
	ProductsField   string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ProjectID   string
	Subject     string
	Description string
	ProductTags []string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:       deps.TicketRepo,
		notes:         deps.NoteRepo,
		projects:      deps.ProjectRepo,
		customValues:  deps.CustomValueRepo,
		dispatcher:    deps.Dispatcher,
		productsField: deps.ProductsField,
	}
}

// CreateTicket creates a ticket, stores its product tags, and publishes the
// creation event. The dispatcher is synchronous, so SLA/OLA deadlines are in
// place before the ticket is handed back.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	project, err := s.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.IsActive {
		return nil, errors.New("project inactive")
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		ProjectID:   input.ProjectID,
		Subject:     strings.TrimSpace(input.Subject),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	if len(input.ProductTags) > 0 {
		if err := s.customValues.Set(ctx, ticket.ID, s.productsField, input.ProductTags); err != nil {
			return nil, err
		}
		ticket.ProductTags = input.ProductTags
	}

	// Deadline assignment failures stay out of the caller's way: the
	// ticket simply carries no obligations.
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			ProjectID:   ticket.ProjectID,
			ProductTags: ticket.ProductTags,
		},
	})

	stored, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	stored.ProductTags = ticket.ProductTags
	return stored, nil
}

// AddNote appends a note to a ticket and publishes the note event so the
// response monitor can clear pending deadlines.
func (s *TicketService) AddNote(ctx context.Context, ticketID, authorID, text string, isPrivate bool) (*domain.Note, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, errors.New("author required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	note := &domain.Note{
		TicketID:  ticket.ID,
		AuthorID:  authorID,
		Text:      text,
		IsPrivate: isPrivate,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventNoteCreated,
		TicketID: ticket.ID,
		Payload: events.NoteCreatedPayload{
			NoteID:     note.ID,
			TargetType: events.TargetTicket,
			AuthorID:   note.AuthorID,
			Text:       note.Text,
			IsPrivate:  note.IsPrivate,
			CreatedAt:  note.CreatedAt,
		},
	})
	return note, nil
}

// GetTicket fetches a ticket with its product tags and notes.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, []domain.Note, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	tags, err := s.customValues.ValuesFor(ctx, ticket.ID, s.productsField)
	if err != nil {
		return nil, nil, err
	}
	ticket.ProductTags = tags
	notes, err := s.notes.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, notes, nil
}

// UpdateStatus transitions ticket status.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, errors.New("invalid status transition")
	}
	oldStatus := ticket.Status
	var closedAt *time.Time
	if newStatus.IsClosed() {
		now := time.Now()
		closedAt = &now
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, newStatus, closedAt); err != nil {
		return nil, err
	}
	ticket.Status = newStatus
	ticket.ClosedAt = closedAt

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:        {domain.TicketStatusInProgress, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress:  {domain.TicketStatusPendingUser, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusPendingUser: {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusResolved:    {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:      {},
	domain.TicketStatusCancelled:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
