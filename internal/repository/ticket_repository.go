package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, closedAt *time.Time) error
	SetLimits(ctx context.Context, id string, slaLimit, olaLimit *time.Time) error
	ClearLimits(ctx context.Context, id string) (bool, error)
	ListOpenByProject(ctx context.Context, projectID string) ([]domain.Ticket, error)
	ListIDsByStoredBreach(ctx context.Context, projectID string, limitColumn string, breached bool, now time.Time) ([]string, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, project_id, subject, description, status,
               sla_limit, ola_limit, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, project_id, subject, description, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.ProjectID,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.ProjectID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.SLALimit,
		&ticket.OLALimit,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, closedAt *time.Time) error {
	const query = `UPDATE tickets SET status=$1, closed_at=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, closedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) SetLimits(ctx context.Context, id string, slaLimit, olaLimit *time.Time) error {
	const query = `UPDATE tickets SET sla_limit=$1, ola_limit=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, slaLimit, olaLimit, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ClearLimits nulls both deadlines in one statement so readers never observe
// a half-cleared pair. The guard makes concurrent clears idempotent: only the
// first one reports true.
func (r *ticketRepository) ClearLimits(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE tickets SET sla_limit=NULL, ola_limit=NULL, updated_at=NOW()
        WHERE id=$1 AND (sla_limit IS NOT NULL OR ola_limit IS NOT NULL)`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) ListOpenByProject(ctx context.Context, projectID string) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT `+ticketColumns+` FROM tickets
             WHERE project_id=$1 AND status NOT IN (%s)
             ORDER BY created_at`, closedStatusList())
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListIDsByStoredBreach partitions tickets by their stored deadline column.
// Closed tickets are excluded from both sides; a null limit can only land on
// the not-breached side.
func (r *ticketRepository) ListIDsByStoredBreach(ctx context.Context, projectID string, limitColumn string, breached bool, now time.Time) ([]string, error) {
	column, err := sanitizeLimitColumn(limitColumn)
	if err != nil {
		return nil, err
	}
	var predicate string
	if breached {
		predicate = fmt.Sprintf("%s IS NOT NULL AND %s <= $2", column, column)
	} else {
		predicate = fmt.Sprintf("(%s IS NULL OR %s > $2)", column, column)
	}
	query := fmt.Sprintf(`SELECT id FROM tickets
             WHERE project_id=$1 AND status NOT IN (%s) AND %s
             ORDER BY created_at`, closedStatusList(), predicate)

	rows, err := r.pool.Query(ctx, query, projectID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func sanitizeLimitColumn(column string) (string, error) {
	switch column {
	case "sla_limit", "ola_limit":
		return column, nil
	default:
		return "", fmt.Errorf("unknown limit column %q", column)
	}
}

func closedStatusList() string {
	quoted := make([]string, 0, len(domain.ClosedStatuses))
	for _, status := range domain.ClosedStatuses {
		quoted = append(quoted, "'"+string(status)+"'")
	}
	return strings.Join(quoted, ",")
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ExternalKey,
			&ticket.ProjectID,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Status,
			&ticket.SLALimit,
			&ticket.OLALimit,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
