package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomValueRepository reads and writes multi-valued custom attributes on
// tickets, keyed by field name. Product tags live under the well-known
// "Products" field.
type CustomValueRepository interface {
	Set(ctx context.Context, ticketID, fieldName string, values []string) error
	ValuesFor(ctx context.Context, ticketID, fieldName string) ([]string, error)
	ValuesForTickets(ctx context.Context, ticketIDs []string, fieldName string) (map[string][]string, error)
}

type customValueRepository struct {
	pool *pgxpool.Pool
}

// NewCustomValueRepository instantiates repository.
func NewCustomValueRepository(pool *pgxpool.Pool) CustomValueRepository {
	return &customValueRepository{pool: pool}
}

func (r *customValueRepository) Set(ctx context.Context, ticketID, fieldName string, values []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM ticket_custom_values WHERE ticket_id=$1 AND field_name=$2`,
		ticketID, fieldName); err != nil {
		return err
	}
	for _, value := range values {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_custom_values (ticket_id, field_name, value) VALUES ($1,$2,$3)`,
			ticketID, fieldName, value); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *customValueRepository) ValuesFor(ctx context.Context, ticketID, fieldName string) ([]string, error) {
	const query = `
        SELECT value FROM ticket_custom_values
        WHERE ticket_id=$1 AND field_name=$2 ORDER BY value`
	rows, err := r.pool.Query(ctx, query, ticketID, fieldName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// ValuesForTickets batches the attribute lookup for a ticket population.
func (r *customValueRepository) ValuesForTickets(ctx context.Context, ticketIDs []string, fieldName string) (map[string][]string, error) {
	result := make(map[string][]string, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT ticket_id, value FROM ticket_custom_values
        WHERE ticket_id = ANY($1) AND field_name=$2 ORDER BY value`
	rows, err := r.pool.Query(ctx, query, ticketIDs, fieldName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID, value string
		if err := rows.Scan(&ticketID, &value); err != nil {
			return nil, err
		}
		result[ticketID] = append(result[ticketID], value)
	}
	return result, rows.Err()
}
