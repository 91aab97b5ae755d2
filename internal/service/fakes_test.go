package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// In-memory repository fakes mirroring the Postgres semantics the services
// rely on.

type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) seed(ticket *domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *memTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus, closedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = status
	ticket.ClosedAt = closedAt
	return nil
}

func (r *memTicketRepo) SetLimits(_ context.Context, id string, slaLimit, olaLimit *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.SLALimit = slaLimit
	ticket.OLALimit = olaLimit
	return nil
}

func (r *memTicketRepo) ClearLimits(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return false, nil
	}
	if ticket.SLALimit == nil && ticket.OLALimit == nil {
		return false, nil
	}
	ticket.SLALimit = nil
	ticket.OLALimit = nil
	return true, nil
}

func (r *memTicketRepo) ListOpenByProject(_ context.Context, projectID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.ProjectID == projectID && !ticket.Status.IsClosed() {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *memTicketRepo) ListIDsByStoredBreach(_ context.Context, projectID string, limitColumn string, breached bool, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.ProjectID != projectID || ticket.Status.IsClosed() {
			continue
		}
		limit := ticket.SLALimit
		if limitColumn == "ola_limit" {
			limit = ticket.OLALimit
		}
		isBreached := limit != nil && !now.Before(*limit)
		if isBreached == breached {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	ids := make([]string, 0, len(result))
	for i := range result {
		ids = append(ids, result[i].ID)
	}
	return ids, nil
}

type memNoteRepo struct {
	mu    sync.Mutex
	seq   int
	notes []domain.Note
}

func (r *memNoteRepo) Create(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	note.ID = fmt.Sprintf("note-%d", r.seq)
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	r.notes = append(r.notes, *note)
	return nil
}

func (r *memNoteRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Note
	for _, note := range r.notes {
		if note.TicketID == ticketID {
			result = append(result, note)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *memNoteRepo) ListByTickets(ctx context.Context, ticketIDs []string) (map[string][]domain.Note, error) {
	result := make(map[string][]domain.Note, len(ticketIDs))
	for _, id := range ticketIDs {
		notes, err := r.ListByTicket(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(notes) > 0 {
			result[id] = notes
		}
	}
	return result, nil
}

type memPolicyRepo struct {
	mu       sync.Mutex
	seq      int
	policies []domain.Policy
}

func (r *memPolicyRepo) Create(_ context.Context, policy *domain.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	policy.ID = fmt.Sprintf("policy-%d", r.seq)
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = time.Now()
	}
	r.policies = append(r.policies, *policy)
	return nil
}

func (r *memPolicyRepo) ListByProject(_ context.Context, projectID string) ([]domain.Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Policy
	for _, policy := range r.policies {
		if policy.ProjectID == projectID {
			result = append(result, policy)
		}
	}
	return result, nil
}

type memProjectRepo struct {
	mu       sync.Mutex
	seq      int
	projects map[string]*domain.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{projects: map[string]*domain.Project{}}
}

func (r *memProjectRepo) Create(_ context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if project.ID == "" {
		project.ID = fmt.Sprintf("project-%d", r.seq)
	}
	project.CreatedAt = time.Now()
	clone := *project
	r.projects[project.ID] = &clone
	return nil
}

func (r *memProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *project
	return &clone, nil
}

func (r *memProjectRepo) List(_ context.Context) ([]domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Project
	for _, project := range r.projects {
		result = append(result, *project)
	}
	return result, nil
}

type memCustomValueRepo struct {
	mu     sync.Mutex
	values map[string]map[string][]string
	err    error
}

func newMemCustomValueRepo() *memCustomValueRepo {
	return &memCustomValueRepo{values: map[string]map[string][]string{}}
}

func (r *memCustomValueRepo) Set(_ context.Context, ticketID, fieldName string, values []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values[ticketID] == nil {
		r.values[ticketID] = map[string][]string{}
	}
	r.values[ticketID][fieldName] = append([]string{}, values...)
	return nil
}

func (r *memCustomValueRepo) ValuesFor(_ context.Context, ticketID, fieldName string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.values[ticketID][fieldName], nil
}

func (r *memCustomValueRepo) ValuesForTickets(_ context.Context, ticketIDs []string, fieldName string) (map[string][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	result := make(map[string][]string, len(ticketIDs))
	for _, id := range ticketIDs {
		if values := r.values[id][fieldName]; len(values) > 0 {
			result[id] = values
		}
	}
	return result, nil
}

type memSettingsRepo struct {
	mu  sync.Mutex
	ids []string
}

func (r *memSettingsRepo) ExcludedAuthorIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.ids...), nil
}

func (r *memSettingsRepo) SetExcludedAuthorIDs(_ context.Context, authorIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append([]string{}, authorIDs...)
	return nil
}
