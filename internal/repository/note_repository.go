package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// NoteRepository encapsulates note persistence. Notes are append-only.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error)
	ListByTickets(ctx context.Context, ticketIDs []string) (map[string][]domain.Note, error)
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository instantiates repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO notes (ticket_id, author_id, text, is_private)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.TicketID,
		note.AuthorID,
		note.Text,
		note.IsPrivate,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, ticket_id, author_id, text, is_private, created_at
        FROM notes WHERE ticket_id=$1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

// ListByTickets loads notes for a whole ticket population in one query so
// bulk evaluation stays linear in ticket count.
func (r *noteRepository) ListByTickets(ctx context.Context, ticketIDs []string) (map[string][]domain.Note, error) {
	result := make(map[string][]domain.Note, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT id, ticket_id, author_id, text, is_private, created_at
        FROM notes WHERE ticket_id = ANY($1) ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		result[note.TicketID] = append(result[note.TicketID], note)
	}
	return result, nil
}

func scanNotes(rows pgx.Rows) ([]domain.Note, error) {
	var result []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.AuthorID,
			&note.Text,
			&note.IsPrivate,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
