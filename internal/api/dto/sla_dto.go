package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// ProjectResponse response.
type ProjectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string   `json:"project_id"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	ProductTags []string `json:"product_tags"`
}

// TicketResponse response, limits included so the host sees deadlines on
// first read.
type TicketResponse struct {
	ID          string              `json:"id"`
	ExternalKey string              `json:"external_key"`
	ProjectID   string              `json:"project_id"`
	Subject     string              `json:"subject"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	ProductTags []string            `json:"product_tags"`
	SLALimit    *time.Time          `json:"sla_limit"`
	OLALimit    *time.Time          `json:"ola_limit"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	ClosedAt    *time.Time          `json:"closed_at,omitempty"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	AuthorID  string `json:"author_id"`
	Text      string `json:"text"`
	IsPrivate bool   `json:"is_private"`
}

// NoteResponse response.
type NoteResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	IsPrivate bool      `json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreatePolicyRequest payload. Business calendar fields must all be present
// or all absent; a partial calendar behaves as continuous time.
type CreatePolicyRequest struct {
	ProjectID     string   `json:"project_id"`
	Products      []string `json:"products"`
	SLADelayHours *float64 `json:"sla_delay_hours"`
	OLADelayHours *float64 `json:"ola_delay_hours"`
	BusinessDays  []int    `json:"business_days"`
	BusinessStart *string  `json:"business_start"`
	BusinessEnd   *string  `json:"business_end"`
}

// PolicyResponse response.
type PolicyResponse struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	Products      []string  `json:"products"`
	SLADelayHours *float64  `json:"sla_delay_hours"`
	OLADelayHours *float64  `json:"ola_delay_hours"`
	BusinessDays  []int     `json:"business_days,omitempty"`
	BusinessStart *string   `json:"business_start,omitempty"`
	BusinessEnd   *string   `json:"business_end,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BreachPartitionResponse lists the ticket IDs on the requested side of the
// breached/not-breached split.
type BreachPartitionResponse struct {
	TicketIDs []string `json:"ticket_ids"`
}

// BreachConditionResponse carries the textual predicate for host query
// composition.
type BreachConditionResponse struct {
	SQL string `json:"sql"`
}

// BreachStatusResponse is the single-ticket answer.
type BreachStatusResponse struct {
	TicketID  string `json:"ticket_id"`
	Dimension string `json:"dimension"`
	Breached  bool   `json:"breached"`
}

// ExcludedAuthorsRequest payload.
type ExcludedAuthorsRequest struct {
	AuthorIDs []string `json:"author_ids"`
}

// ExcludedAuthorsResponse response.
type ExcludedAuthorsResponse struct {
	AuthorIDs []string `json:"author_ids"`
}
