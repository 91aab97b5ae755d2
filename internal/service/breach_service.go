package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// Dimension selects which deadline a breach query runs against.
type Dimension string

const (
	DimensionSLA Dimension = "sla"
	DimensionOLA Dimension = "ola"
)

// LimitColumn maps the dimension onto its stored column.
func (d Dimension) LimitColumn() (string, error) {
	switch d {
	case DimensionSLA:
		return "sla_limit", nil
	case DimensionOLA:
		return "ola_limit", nil
	default:
		return "", fmt.Errorf("unknown dimension %q", string(d))
	}
}

func (d Dimension) limitOf(t *domain.Ticket) *time.Time {
	if d == DimensionOLA {
		return t.OLALimit
	}
	return t.SLALimit
}

func (d Dimension) delayOf(p *domain.Policy) (time.Duration, bool) {
	if d == DimensionOLA {
		return p.OLADelay()
	}
	return p.SLADelay()
}

// BreachOperator carries the host filter's equality semantics.
type BreachOperator string

const (
	OperatorEquals    BreachOperator = "="
	OperatorNotEquals BreachOperator = "!"
)

// WantBreached translates operator+values into the side of the partition the
// caller asked for: "equals yes" and "not-equals no" both mean breached.
func WantBreached(operator BreachOperator, values []string) bool {
	contains := func(want string) bool {
		for _, v := range values {
			if v == want {
				return true
			}
		}
		return false
	}
	return (operator == OperatorEquals && contains("1")) ||
		(operator == OperatorNotEquals && contains("0"))
}

// AlwaysFalseSQL is the predicate handed to the host's query composition when
// a partition is empty, so downstream AND/OR chains stay well-defined.
const AlwaysFalseSQL = "1=0"

// BreachService answers breach/not-breach for single tickets and partitions
// ticket populations, over stored deadlines (fast path) or by live
// recomputation (reconciliation path).
type BreachService struct {
	tickets       repository.TicketRepository
	notes         repository.NoteRepository
	policies      repository.PolicyRepository
	customValues  repository.CustomValueRepository
	settings      repository.SettingsRepository
	catalog       *PolicyCatalog
	metrics       *observability.Metrics
	logger        *zap.Logger
	productsField string
}

// BreachDependencies bundles collaborators for the breach service.
type BreachDependencies struct {
	TicketRepo      repository.TicketRepository
	NoteRepo        repository.NoteRepository
	PolicyRepo      repository.PolicyRepository
	CustomValueRepo repository.CustomValueRepository
	SettingsRepo    repository.SettingsRepository
	Catalog         *PolicyCatalog
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	ProductsField   string
}

// NewBreachService constructs the service.
func NewBreachService(deps BreachDependencies) *BreachService {
	return &BreachService{
		tickets:       deps.TicketRepo,
		notes:         deps.NoteRepo,
		policies:      deps.PolicyRepo,
		customValues:  deps.CustomValueRepo,
		settings:      deps.SettingsRepo,
		catalog:       deps.Catalog,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		productsField: deps.ProductsField,
	}
}

// IsBreachedStored is the fast-path predicate over a loaded ticket: breached
// iff the stored limit exists and now has reached it. Closed tickets are
// never breached, a nil limit is never breached.
func (s *BreachService) IsBreachedStored(ticket *domain.Ticket, dimension Dimension, now time.Time) bool {
	if ticket.Status.IsClosed() {
		return false
	}
	limit := dimension.limitOf(ticket)
	return limit != nil && !now.Before(*limit)
}

// PartitionStored returns the ticket IDs on the requested side of the
// breached/not-breached split, using the stored limit columns.
func (s *BreachService) PartitionStored(ctx context.Context, projectID string, dimension Dimension, operator BreachOperator, values []string, now time.Time) ([]string, error) {
	column, err := dimension.LimitColumn()
	if err != nil {
		return nil, err
	}
	s.record(dimension, "stored")
	return s.tickets.ListIDsByStoredBreach(ctx, projectID, column, WantBreached(operator, values), now)
}

// SQLCondition renders the stored-limit partition as a textual predicate for
// the host's query composition.
func (s *BreachService) SQLCondition(dimension Dimension, operator BreachOperator, values []string, now time.Time) (string, error) {
	column, err := dimension.LimitColumn()
	if err != nil {
		return "", err
	}
	closed := make([]string, 0, len(domain.ClosedStatuses))
	for _, status := range domain.ClosedStatuses {
		closed = append(closed, "'"+string(status)+"'")
	}
	ts := now.UTC().Format("2006-01-02 15:04:05")

	var predicate string
	if WantBreached(operator, values) {
		predicate = fmt.Sprintf("%s IS NOT NULL AND %s <= '%s'", column, column, ts)
	} else {
		predicate = fmt.Sprintf("(%s IS NULL OR %s > '%s')", column, column, ts)
	}
	return fmt.Sprintf(
		"tickets.id IN (SELECT id FROM tickets WHERE status NOT IN (%s) AND %s)",
		strings.Join(closed, ","), predicate), nil
}

// SQLConditionForIDs renders an explicit ticket-id partition as a predicate.
// An empty partition yields an always-false predicate so downstream AND/OR
// chains stay well-defined.
func SQLConditionForIDs(ids []string) string {
	if len(ids) == 0 {
		return AlwaysFalseSQL
	}
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		quoted = append(quoted, "'"+id+"'")
	}
	return fmt.Sprintf("tickets.id IN (%s)", strings.Join(quoted, ","))
}

// IsBreachedLive recomputes a single ticket's breach state from policy,
// notes, and calendar, ignoring the stored columns.
func (s *BreachService) IsBreachedLive(ctx context.Context, ticketID string, dimension Dimension, now time.Time) (bool, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return false, err
	}
	if ticket.Status.IsClosed() {
		return false, nil
	}

	tags, err := s.customValues.ValuesFor(ctx, ticket.ID, s.productsField)
	if err != nil {
		s.degrade(ticket.ID, err)
		return false, nil
	}
	policy, err := s.catalog.FindPolicy(ctx, ticket.ProjectID, tags)
	if err != nil {
		s.degrade(ticket.ID, err)
		return false, nil
	}
	notes, err := s.notes.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return false, err
	}
	excludedIDs, err := s.settings.ExcludedAuthorIDs(ctx)
	if err != nil {
		return false, err
	}

	s.record(dimension, "live")
	return evaluateLive(ticket, policy, notes, domain.NewExclusionSet(excludedIDs), dimension, now), nil
}

// PartitionLive evaluates every open ticket of the project in memory and
// returns the requested side of the split. All collaborator data is loaded
// in bulk up front so cost stays linear in ticket count.
func (s *BreachService) PartitionLive(ctx context.Context, projectID string, dimension Dimension, operator BreachOperator, values []string, now time.Time) ([]string, error) {
	tickets, err := s.tickets.ListOpenByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(tickets))
	for i := range tickets {
		ids = append(ids, tickets[i].ID)
	}

	tagsByTicket, err := s.customValues.ValuesForTickets(ctx, ids, s.productsField)
	if err != nil {
		// Products attribute unreadable: no breach can be established for
		// any ticket, the partition degrades instead of failing.
		s.degrade(projectID, err)
		tagsByTicket = map[string][]string{}
	}
	policies, err := s.policies.ListByProject(ctx, projectID)
	if err != nil {
		s.degrade(projectID, err)
		policies = nil
	}
	notesByTicket, err := s.notes.ListByTickets(ctx, ids)
	if err != nil {
		return nil, err
	}
	excludedIDs, err := s.settings.ExcludedAuthorIDs(ctx)
	if err != nil {
		return nil, err
	}
	excluded := domain.NewExclusionSet(excludedIDs)

	wantBreached := WantBreached(operator, values)
	s.record(dimension, "live")

	var result []string
	for i := range tickets {
		ticket := &tickets[i]
		policy := s.catalog.Match(policies, tagsByTicket[ticket.ID])
		breached := evaluateLive(ticket, policy, notesByTicket[ticket.ID], excluded, dimension, now)
		if breached == wantBreached {
			result = append(result, ticket.ID)
		}
	}
	return result, nil
}

// evaluateLive is the reconciliation predicate: eligible elapsed time from
// creation up to the first qualifying response (or now) strictly exceeds the
// policy delay. A ticket that was answered in time can never become breached
// later; a late answer stays breached.
func evaluateLive(ticket *domain.Ticket, policy *domain.Policy, notes []domain.Note, excluded domain.ExclusionSet, dimension Dimension, now time.Time) bool {
	if ticket.Status.IsClosed() || policy == nil {
		return false
	}
	delay, ok := dimension.delayOf(policy)
	if !ok {
		return false
	}
	end := now
	if response := FirstQualifyingResponse(notes, excluded); response != nil {
		end = response.CreatedAt
	}
	elapsed := sla.Elapsed(ticket.CreatedAt, end, policy.Calendar())
	return elapsed > delay
}

func (s *BreachService) record(dimension Dimension, mode string) {
	if s.metrics != nil {
		s.metrics.RecordEvaluation(string(dimension), mode)
	}
}

func (s *BreachService) degrade(scope string, err error) {
	if s.logger != nil {
		s.logger.Warn("breach evaluation degraded to not-breached",
			zap.String("scope", scope), zap.Error(err))
	}
}
