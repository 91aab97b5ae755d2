package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// DeadlineService assigns SLA/OLA deadlines when tickets are created and
// clears them when the first qualifying response arrives.
type DeadlineService struct {
	tickets  repository.TicketRepository
	settings repository.SettingsRepository
	catalog  *PolicyCatalog
	logger   *zap.Logger
}

// DeadlineDependencies bundles collaborators for the deadline service.
type DeadlineDependencies struct {
	TicketRepo   repository.TicketRepository
	SettingsRepo repository.SettingsRepository
	Catalog      *PolicyCatalog
	Logger       *zap.Logger
}

// NewDeadlineService constructs the service.
func NewDeadlineService(deps DeadlineDependencies) *DeadlineService {
	return &DeadlineService{
		tickets:  deps.TicketRepo,
		settings: deps.SettingsRepo,
		catalog:  deps.Catalog,
		logger:   deps.Logger,
	}
}

// RegisterHandlers subscribes the lifecycle hooks on the dispatcher.
func (s *DeadlineService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, s.handleTicketCreated)
	dispatcher.Subscribe(events.EventNoteCreated, s.handleNoteCreated)
}

func (s *DeadlineService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	return s.AssignDeadlines(ctx, event.TicketID, payload.ProjectID, payload.ProductTags)
}

func (s *DeadlineService) handleNoteCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NoteCreatedPayload)
	if !ok || payload.TargetType != events.TargetTicket {
		return nil
	}
	note := domain.Note{
		ID:        payload.NoteID,
		TicketID:  event.TicketID,
		AuthorID:  payload.AuthorID,
		Text:      payload.Text,
		IsPrivate: payload.IsPrivate,
		CreatedAt: payload.CreatedAt,
	}
	return s.HandleNote(ctx, &note)
}

// AssignDeadlines resolves the ticket's policy and stores the absolute
// deadlines derived from its delays. A ticket without a matching policy is
// simply created without obligations; that is not an error.
func (s *DeadlineService) AssignDeadlines(ctx context.Context, ticketID, projectID string, productTags []string) error {
	policy, err := s.catalog.FindPolicy(ctx, projectID, productTags)
	if err != nil {
		s.logger.Warn("policy lookup failed, ticket created without SLA/OLA",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return nil
	}
	if policy == nil {
		return nil
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}

	calendar := policy.Calendar()
	slaLimit := s.project(ticketID, "sla", ticket.CreatedAt, policy.SLADelay, calendar)
	olaLimit := s.project(ticketID, "ola", ticket.CreatedAt, policy.OLADelay, calendar)
	if slaLimit == nil && olaLimit == nil {
		return nil
	}

	if err := s.tickets.SetLimits(ctx, ticketID, slaLimit, olaLimit); err != nil {
		return err
	}
	s.logger.Info("deadlines assigned",
		zap.String("ticket_id", ticketID),
		zap.String("policy_id", policy.ID),
		zap.Timep("sla_limit", slaLimit),
		zap.Timep("ola_limit", olaLimit))
	return nil
}

func (s *DeadlineService) project(ticketID, dimension string, createdAt time.Time, delay func() (time.Duration, bool), calendar *sla.Calendar) *time.Time {
	d, ok := delay()
	if !ok {
		return nil
	}
	limit, err := sla.Deadline(createdAt, d, calendar)
	if err != nil {
		s.logger.Warn("deadline projection failed, dimension left untracked",
			zap.String("ticket_id", ticketID),
			zap.String("dimension", dimension),
			zap.Error(err))
		return nil
	}
	return &limit
}

// HandleNote clears both deadlines when the note is a qualifying response.
// The clear is a single guarded update: racing notes see it applied exactly
// once and a ticket with no pending limits is untouched.
func (s *DeadlineService) HandleNote(ctx context.Context, note *domain.Note) error {
	excludedIDs, err := s.settings.ExcludedAuthorIDs(ctx)
	if err != nil {
		return err
	}
	if !note.QualifiesAsResponse(domain.NewExclusionSet(excludedIDs)) {
		return nil
	}
	cleared, err := s.tickets.ClearLimits(ctx, note.TicketID)
	if err != nil {
		return err
	}
	if cleared {
		s.logger.Info("deadlines cleared by response",
			zap.String("ticket_id", note.TicketID),
			zap.String("note_id", note.ID))
	}
	return nil
}
