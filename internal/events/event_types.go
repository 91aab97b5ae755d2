package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventNoteCreated         EventType = "note_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// TargetType identifies the entity a note event is attached to. Only ticket
// notes participate in deadline clearing.
type TargetType string

const (
	TargetTicket TargetType = "ticket"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload is published after a ticket and its product tags are
// durably stored, before the creation request is acknowledged.
type TicketCreatedPayload struct {
	ProjectID   string   `json:"project_id"`
	ProductTags []string `json:"product_tags"`
}

// NoteCreatedPayload carries the note fields the response rule reads, as they
// existed at creation time.
type NoteCreatedPayload struct {
	NoteID     string     `json:"note_id"`
	TargetType TargetType `json:"target_type"`
	AuthorID   string     `json:"author_id"`
	Text       string     `json:"text"`
	IsPrivate  bool       `json:"is_private"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}
