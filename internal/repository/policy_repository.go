package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/sla"
)

// PolicyRepository reads level-agreement policies. Policies are authored
// externally; the engine only consumes them.
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.Policy) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Policy, error)
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

func (r *policyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	const query = `
        INSERT INTO level_agreement_policies
            (project_id, products, sla_delay_hours, ola_delay_hours, business_days, business_start, business_end)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		policy.ProjectID,
		policy.Products,
		policy.SLADelayHours,
		policy.OLADelayHours,
		weekdaysToInts(policy.BusinessDays),
		clockTimeString(policy.BusinessStart),
		clockTimeString(policy.BusinessEnd),
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
}

// ListByProject returns the project's policies in creation order, which is
// the stable enumeration order used to break ambiguous product matches.
func (r *policyRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Policy, error) {
	const query = `
        SELECT id, project_id, products, sla_delay_hours, ola_delay_hours,
               business_days, business_start, business_end, created_at, updated_at
        FROM level_agreement_policies
        WHERE project_id=$1
        ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func scanPolicies(rows pgx.Rows) ([]domain.Policy, error) {
	var result []domain.Policy
	for rows.Next() {
		var (
			policy     domain.Policy
			days       []int32
			start, end *string
		)
		if err := rows.Scan(
			&policy.ID,
			&policy.ProjectID,
			&policy.Products,
			&policy.SLADelayHours,
			&policy.OLADelayHours,
			&days,
			&start,
			&end,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		); err != nil {
			return nil, err
		}
		policy.BusinessDays = intsToWeekdays(days)
		policy.BusinessStart = parseClockTimeColumn(start)
		policy.BusinessEnd = parseClockTimeColumn(end)
		result = append(result, policy)
	}
	return result, rows.Err()
}

func weekdaysToInts(days []time.Weekday) []int32 {
	if len(days) == 0 {
		return nil
	}
	out := make([]int32, 0, len(days))
	for _, d := range days {
		out = append(out, int32(d))
	}
	return out
}

func intsToWeekdays(days []int32) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}

func clockTimeString(ct *sla.ClockTime) *string {
	if ct == nil {
		return nil
	}
	s := ct.String()
	return &s
}

// parseClockTimeColumn tolerates malformed values: a column that does not
// parse behaves as absent, which downgrades the policy to continuous time.
func parseClockTimeColumn(s *string) *sla.ClockTime {
	if s == nil {
		return nil
	}
	ct, err := sla.ParseClockTime(*s)
	if err != nil {
		return nil
	}
	return &ct
}
