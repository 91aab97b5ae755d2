package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/observability"
)

type breachFixture struct {
	tickets      *memTicketRepo
	notes        *memNoteRepo
	policies     *memPolicyRepo
	customValues *memCustomValueRepo
	settings     *memSettingsRepo
	metrics      *observability.Metrics
	service      *BreachService
}

func newBreachFixture(t *testing.T) *breachFixture {
	t.Helper()
	tickets := newMemTicketRepo()
	notes := &memNoteRepo{}
	policies := &memPolicyRepo{}
	customValues := newMemCustomValueRepo()
	settings := &memSettingsRepo{}
	metrics := observability.NewMetrics()
	service := NewBreachService(BreachDependencies{
		TicketRepo:      tickets,
		NoteRepo:        notes,
		PolicyRepo:      policies,
		CustomValueRepo: customValues,
		SettingsRepo:    settings,
		Catalog:         NewPolicyCatalog(policies, zap.NewNop()),
		Metrics:         metrics,
		Logger:          zap.NewNop(),
		ProductsField:   "Products",
	})
	return &breachFixture{
		tickets:      tickets,
		notes:        notes,
		policies:     policies,
		customValues: customValues,
		settings:     settings,
		metrics:      metrics,
		service:      service,
	}
}

func (f *breachFixture) seedOpenTicket(t *testing.T, id string, createdAt time.Time, slaLimit, olaLimit *time.Time, tags []string) {
	t.Helper()
	f.tickets.seed(&domain.Ticket{
		ID:        id,
		ProjectID: "project-1",
		Status:    domain.TicketStatusOpen,
		CreatedAt: createdAt,
		SLALimit:  slaLimit,
		OLALimit:  olaLimit,
	})
	if len(tags) > 0 {
		require.NoError(t, f.customValues.Set(context.Background(), id, "Products", tags))
	}
}

func TestWantBreached(t *testing.T) {
	tests := []struct {
		operator BreachOperator
		values   []string
		want     bool
	}{
		{OperatorEquals, []string{"1"}, true},
		{OperatorEquals, []string{"0"}, false},
		{OperatorEquals, []string{"0", "1"}, true},
		{OperatorNotEquals, []string{"0"}, true},
		{OperatorNotEquals, []string{"1"}, false},
		{OperatorEquals, nil, false},
		{OperatorNotEquals, nil, false},
	}
	for _, tc := range tests {
		name := fmt.Sprintf("%s%v", tc.operator, tc.values)
		assert.Equal(t, tc.want, WantBreached(tc.operator, tc.values), name)
	}
}

func TestIsBreachedStored(t *testing.T) {
	limit := time.Date(2025, time.July, 24, 16, 0, 0, 0, time.UTC)
	svc := newBreachFixture(t).service

	open := &domain.Ticket{Status: domain.TicketStatusOpen, SLALimit: &limit}
	assert.False(t, svc.IsBreachedStored(open, DimensionSLA, limit.Add(-time.Minute)))
	assert.True(t, svc.IsBreachedStored(open, DimensionSLA, limit), "breach starts exactly at the limit")
	assert.True(t, svc.IsBreachedStored(open, DimensionSLA, limit.Add(time.Hour)))

	// The other dimension has no limit stored.
	assert.False(t, svc.IsBreachedStored(open, DimensionOLA, limit.Add(time.Hour)))

	noLimit := &domain.Ticket{Status: domain.TicketStatusOpen}
	assert.False(t, svc.IsBreachedStored(noLimit, DimensionSLA, limit.Add(time.Hour)))

	closed := &domain.Ticket{Status: domain.TicketStatusClosed, SLALimit: &limit}
	assert.False(t, svc.IsBreachedStored(closed, DimensionSLA, limit.Add(time.Hour)))
}

func TestPartitionStored(t *testing.T) {
	f := newBreachFixture(t)
	now := time.Date(2025, time.July, 24, 17, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	f.seedOpenTicket(t, "breached", now.Add(-8*time.Hour), &past, nil, nil)
	f.seedOpenTicket(t, "pending", now.Add(-7*time.Hour), &future, nil, nil)
	f.seedOpenTicket(t, "no-limit", now.Add(-6*time.Hour), nil, nil, nil)
	f.tickets.seed(&domain.Ticket{
		ID:        "closed",
		ProjectID: "project-1",
		Status:    domain.TicketStatusClosed,
		CreatedAt: now.Add(-5 * time.Hour),
		SLALimit:  &past,
	})

	breached, err := f.service.PartitionStored(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"1"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"breached"}, breached)

	// "! 0" asks for the same breached side.
	breached, err = f.service.PartitionStored(context.Background(), "project-1", DimensionSLA, OperatorNotEquals, []string{"0"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"breached"}, breached)

	notBreached, err := f.service.PartitionStored(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"0"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending", "no-limit"}, notBreached)

	assert.Equal(t, int64(3), f.metrics.EvaluationCount("sla", "stored"))
}

func TestPartitionStoredUnknownDimension(t *testing.T) {
	f := newBreachFixture(t)
	_, err := f.service.PartitionStored(context.Background(), "project-1", Dimension("bogus"), OperatorEquals, []string{"1"}, time.Now())
	assert.Error(t, err)
}

func TestSQLCondition(t *testing.T) {
	f := newBreachFixture(t)
	now := time.Date(2025, time.July, 24, 16, 30, 0, 0, time.UTC)

	breached, err := f.service.SQLCondition(DimensionSLA, OperatorEquals, []string{"1"}, now)
	require.NoError(t, err)
	assert.Contains(t, breached, "tickets.id IN (SELECT id FROM tickets WHERE status NOT IN ('CLOSED','CANCELLED')")
	assert.Contains(t, breached, "sla_limit IS NOT NULL AND sla_limit <= '2025-07-24 16:30:00'")

	notBreached, err := f.service.SQLCondition(DimensionOLA, OperatorEquals, []string{"0"}, now)
	require.NoError(t, err)
	assert.Contains(t, notBreached, "(ola_limit IS NULL OR ola_limit > '2025-07-24 16:30:00')")

	_, err = f.service.SQLCondition(Dimension("bogus"), OperatorEquals, []string{"1"}, now)
	assert.Error(t, err)
}

func TestSQLConditionForIDs(t *testing.T) {
	assert.Equal(t, AlwaysFalseSQL, SQLConditionForIDs(nil))
	assert.Equal(t, "tickets.id IN ('a','b')", SQLConditionForIDs([]string{"a", "b"}))
}

func seedLivePolicy(t *testing.T, f *breachFixture) {
	t.Helper()
	require.NoError(t, f.policies.Create(context.Background(),
		businessHoursPolicy("project-1", []string{"widget"}, floatPtr(6), floatPtr(3))))
}

func TestIsBreachedLiveNoResponsePastDeadline(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	// Thu 10:00 creation, 6 business hours mean a Thu 16:00 deadline.
	f.seedOpenTicket(t, "ticket-1", ticketCreatedAt, nil, nil, []string{"widget"})

	now := time.Date(2025, time.July, 24, 17, 0, 0, 0, time.UTC)
	breached, err := f.service.IsBreachedLive(context.Background(), "ticket-1", DimensionSLA, now)
	require.NoError(t, err)
	assert.True(t, breached)

	before := time.Date(2025, time.July, 24, 15, 0, 0, 0, time.UTC)
	breached, err = f.service.IsBreachedLive(context.Background(), "ticket-1", DimensionSLA, before)
	require.NoError(t, err)
	assert.False(t, breached)
}

func TestIsBreachedLiveTimelyResponseNeverBreaches(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	f.seedOpenTicket(t, "ticket-1", ticketCreatedAt, nil, nil, []string{"widget"})
	require.NoError(t, f.notes.Create(context.Background(), &domain.Note{
		TicketID:  "ticket-1",
		AuthorID:  "agent-1",
		Text:      "answered within the window",
		CreatedAt: time.Date(2025, time.July, 24, 12, 0, 0, 0, time.UTC),
	}))

	// Long past the deadline the answered ticket stays clean.
	now := time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC)
	breached, err := f.service.IsBreachedLive(context.Background(), "ticket-1", DimensionSLA, now)
	require.NoError(t, err)
	assert.False(t, breached)
}

func TestIsBreachedLiveLateResponseStaysBreached(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	f.seedOpenTicket(t, "ticket-1", ticketCreatedAt, nil, nil, []string{"widget"})
	require.NoError(t, f.notes.Create(context.Background(), &domain.Note{
		TicketID:  "ticket-1",
		AuthorID:  "agent-1",
		Text:      "sorry for the delay",
		CreatedAt: time.Date(2025, time.July, 24, 17, 0, 0, 0, time.UTC),
	}))

	now := time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC)
	breached, err := f.service.IsBreachedLive(context.Background(), "ticket-1", DimensionSLA, now)
	require.NoError(t, err)
	assert.True(t, breached)
}

func TestIsBreachedLiveExcludedAuthorDoesNotStopClock(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	f.seedOpenTicket(t, "ticket-1", ticketCreatedAt, nil, nil, []string{"widget"})
	require.NoError(t, f.settings.SetExcludedAuthorIDs(context.Background(), []string{"bot-1"}))
	require.NoError(t, f.notes.Create(context.Background(), &domain.Note{
		TicketID:  "ticket-1",
		AuthorID:  "bot-1",
		Text:      "we received your request",
		CreatedAt: time.Date(2025, time.July, 24, 10, 5, 0, 0, time.UTC),
	}))

	now := time.Date(2025, time.July, 24, 17, 0, 0, 0, time.UTC)
	breached, err := f.service.IsBreachedLive(context.Background(), "ticket-1", DimensionSLA, now)
	require.NoError(t, err)
	assert.True(t, breached)
}

func TestIsBreachedLiveClosedTicket(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	f.tickets.seed(&domain.Ticket{
		ID:        "ticket-1",
		ProjectID: "project-1",
		Status:    domain.TicketStatusClosed,
		CreatedAt: ticketCreatedAt,
	})

	now := time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC)
	breached, err := f.service.IsBreachedLive(context.Background(), "ticket-1", DimensionSLA, now)
	require.NoError(t, err)
	assert.False(t, breached)
}

func TestIsBreachedLiveDegradesOnTagLookupFailure(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	f.seedOpenTicket(t, "ticket-1", ticketCreatedAt, nil, nil, []string{"widget"})
	f.customValues.err = fmt.Errorf("custom field store down")

	now := time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC)
	breached, err := f.service.IsBreachedLive(context.Background(), "ticket-1", DimensionSLA, now)
	require.NoError(t, err)
	assert.False(t, breached)
}

func TestPartitionLiveMixedPopulation(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	now := time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC)

	// Past deadline, never answered.
	f.seedOpenTicket(t, "late", ticketCreatedAt, nil, nil, []string{"widget"})
	// Answered within the window.
	f.seedOpenTicket(t, "answered", ticketCreatedAt.Add(time.Minute), nil, nil, []string{"widget"})
	require.NoError(t, f.notes.Create(context.Background(), &domain.Note{
		TicketID:  "answered",
		AuthorID:  "agent-1",
		Text:      "on it",
		CreatedAt: time.Date(2025, time.July, 24, 11, 0, 0, 0, time.UTC),
	}))
	// No matching policy: never breached.
	f.seedOpenTicket(t, "untracked", ticketCreatedAt.Add(2*time.Minute), nil, nil, []string{"doohickey"})
	// No tags at all.
	f.seedOpenTicket(t, "untagged", ticketCreatedAt.Add(3*time.Minute), nil, nil, nil)
	// Closed tickets never take part.
	f.tickets.seed(&domain.Ticket{
		ID:        "closed",
		ProjectID: "project-1",
		Status:    domain.TicketStatusCancelled,
		CreatedAt: ticketCreatedAt.Add(4 * time.Minute),
	})

	breached, err := f.service.PartitionLive(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"1"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, breached)

	notBreached, err := f.service.PartitionLive(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"0"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"answered", "untracked", "untagged"}, notBreached)

	assert.Equal(t, int64(2), f.metrics.EvaluationCount("sla", "live"))
}

func TestPartitionLiveNilDelayDimension(t *testing.T) {
	f := newBreachFixture(t)
	// SLA only, no OLA obligation.
	require.NoError(t, f.policies.Create(context.Background(),
		businessHoursPolicy("project-1", []string{"widget"}, floatPtr(6), nil)))
	f.seedOpenTicket(t, "ticket-1", ticketCreatedAt, nil, nil, []string{"widget"})

	now := time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC)
	breached, err := f.service.PartitionLive(context.Background(), "project-1", DimensionOLA, OperatorEquals, []string{"1"}, now)
	require.NoError(t, err)
	assert.Empty(t, breached)

	breached, err = f.service.PartitionLive(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"1"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket-1"}, breached)
}

func TestPartitionLiveEmptyProject(t *testing.T) {
	f := newBreachFixture(t)
	ids, err := f.service.PartitionLive(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"1"}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPartitionLiveDegradesWhenTagsUnreadable(t *testing.T) {
	f := newBreachFixture(t)
	seedLivePolicy(t, f)
	f.seedOpenTicket(t, "late", ticketCreatedAt, nil, nil, []string{"widget"})
	f.customValues.err = fmt.Errorf("custom field store down")

	now := time.Date(2025, time.July, 28, 12, 0, 0, 0, time.UTC)
	breached, err := f.service.PartitionLive(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"1"}, now)
	require.NoError(t, err)
	assert.Empty(t, breached)

	notBreached, err := f.service.PartitionLive(context.Background(), "project-1", DimensionSLA, OperatorEquals, []string{"0"}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, notBreached)
}
